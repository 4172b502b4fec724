// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"creatorhub/internal/models"
	"creatorhub/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var handleUnsafe = regexp.MustCompile(`[^a-z]+`)

// sample media served by public placeholder hosts
var sampleVideos = []string{
	"https://test-videos.co.uk/vids/bigbuckbunny/mp4/h264/720/Big_Buck_Bunny_720_10s_1MB.mp4",
	"https://test-videos.co.uk/vids/jellyfish/mp4/h264/720/Jellyfish_720_10s_1MB.mp4",
	"https://test-videos.co.uk/vids/sintel/mp4/h264/720/Sintel_720_10s_1MB.mp4",
}

// Factory builds domain entities and persists them through the repositories,
// so denormalized counters stay consistent with the rows they summarize.
type Factory struct {
	faker *gofakeit.Faker
	now   time.Time
	days  int

	users         repository.UserRepository
	content       repository.ContentRepository
	interactions  repository.InteractionRepository
	subscriptions repository.SubscriptionRepository
	chat          repository.ChatRepository
	gigs          repository.GigRepository
	search        repository.SearchRepository
}

// NewFactory creates a Factory bound to db. A zero seed draws a random one.
func NewFactory(db *gorm.DB, seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		faker:         gofakeit.New(seed),
		now:           time.Now(),
		days:          maxDays,
		users:         repository.NewUserRepository(db),
		content:       repository.NewContentRepository(db),
		interactions:  repository.NewInteractionRepository(db),
		subscriptions: repository.NewSubscriptionRepository(db),
		chat:          repository.NewChatRepository(db),
		gigs:          repository.NewGigRepository(db),
		search:        repository.NewSearchRepository(db),
	}
}

// Faker exposes the factory's random source.
func (f *Factory) Faker() *gofakeit.Faker { return f.faker }

// Intn returns a random int in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.faker.Rand.Intn(n)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Rand.Float64() < p
}

// pastTime spreads timestamps across the configured window.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.Intn(f.days))*24*time.Hour +
		time.Duration(f.Intn(24))*time.Hour +
		time.Duration(f.Intn(60))*time.Minute
	return f.now.Add(-back)
}

// Handle derives a valid username from a generated name. The numeric
// suffix keeps handles unique because the base holds letters only.
func (f *Factory) Handle(n int) string {
	base := handleUnsafe.ReplaceAllString(strings.ToLower(f.faker.Username()), "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s%d", base, n)
}

// CreateUser persists a user with the shared password hash.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, username, passwordHash string, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:         username,
		Email:            username + "@example.com",
		Password:         passwordHash,
		Bio:              f.faker.Sentence(10),
		Location:         f.faker.City(),
		ProfileImagePath: fmt.Sprintf("https://i.pravatar.cc/300?u=%s", username),
		AccountType:      models.AccountTypeFree,
		IsActive:         true,
		CreatedAt:        f.pastTime(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

// CreateContent persists an image or video post for creator. Videos always
// carry a thumbnail so they satisfy the publish rules.
func (f *Factory) CreateContent(ctx context.Context, creator *models.User, kind models.ContentType, published bool, tags []string) (*models.Content, error) {
	item := &models.Content{
		Title:       strings.TrimSuffix(f.faker.Sentence(f.Intn(5)+2), "."),
		Description: f.faker.Paragraph(1, 2, 12, " "),
		Type:        kind,
		Tags:        tags,
		IsPublished: published,
		ViewCount:   f.Intn(5000),
		CreatorID:   creator.ID,
		CreatedAt:   f.pastTime(),
	}

	switch kind {
	case models.ContentTypeVideo:
		item.MediaPath = sampleVideos[f.Intn(len(sampleVideos))]
		thumb := fmt.Sprintf("https://picsum.photos/seed/%s/720/1280", f.faker.UUID())
		item.ThumbnailPath = &thumb
	default:
		item.MediaPath = fmt.Sprintf("https://picsum.photos/seed/%s/1080/1350", f.faker.UUID())
	}
	if !item.CanPublish() {
		item.IsPublished = false
	}

	if err := f.content.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return item, nil
}

// Like records userID liking target. It reports false when the like already existed.
func (f *Factory) Like(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	return f.interactions.AddLike(ctx, userID, target)
}

// CreateComment persists a comment, or a reply when parent is set.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, item *models.Content, parent *models.Comment, mention string) (*models.Comment, error) {
	text := f.faker.Sentence(f.Intn(10) + 3)
	if mention != "" {
		text = "@" + mention + " " + text
	}
	c := &models.Comment{
		Text:      text,
		UserID:    author.ID,
		ContentID: item.ID,
		CreatedAt: item.CreatedAt.Add(time.Duration(f.Intn(72)+1) * time.Hour),
	}
	if parent != nil {
		c.ParentID = &parent.ID
		c.CreatedAt = parent.CreatedAt.Add(time.Duration(f.Intn(120)+1) * time.Minute)
	}
	if c.CreatedAt.After(f.now) {
		c.CreatedAt = f.now
	}
	if err := f.interactions.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// Subscribe makes subscriber follow creator unless it already does.
func (f *Factory) Subscribe(ctx context.Context, subscriberID, creatorID uint) (bool, error) {
	if _, err := f.subscriptions.Get(ctx, subscriberID, creatorID); err == nil {
		return false, nil
	} else if !repository.IsNotFound(err) {
		return false, err
	}
	sub := &models.Subscription{SubscriberID: subscriberID, CreatorID: creatorID, IsActive: true}
	if err := f.subscriptions.Create(ctx, sub); err != nil {
		return false, fmt.Errorf("create subscription: %w", err)
	}
	return true, nil
}

// Converse opens the pair's conversation and appends n alternating messages.
func (f *Factory) Converse(ctx context.Context, a, b *models.User, n int) (*models.Conversation, int, error) {
	conv, _, err := f.chat.FindOrCreateConversation(ctx, a.ID, b.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("create conversation: %w", err)
	}

	start := f.pastTime()
	sent := 0
	for i := 0; i < n; i++ {
		sender := a
		if i%2 == 1 {
			sender = b
		}
		at := start.Add(time.Duration(i*(f.Intn(30)+1)) * time.Minute)
		if at.After(f.now) {
			at = f.now
		}
		msg := &models.Message{
			ConversationID: conv.ID,
			SenderID:       sender.ID,
			Text:           f.faker.Sentence(f.Intn(12) + 2),
			IsRead:         i < n-1,
			CreatedAt:      at,
		}
		if err := f.chat.CreateMessage(ctx, msg); err != nil {
			return conv, sent, fmt.Errorf("create message: %w", err)
		}
		sent++
	}
	return conv, sent, nil
}

// CreateGig persists an active or paused listing for creator.
func (f *Factory) CreateGig(ctx context.Context, creator *models.User, skills []string) (*models.Gig, error) {
	status := models.GigActive
	if f.Chance(0.15) {
		status = models.GigPaused
	}
	gig := &models.Gig{
		Title:       strings.TrimSuffix(fmt.Sprintf("%s %s", f.faker.JobDescriptor(), f.faker.JobTitle()), "."),
		Description: f.faker.Paragraph(1, 3, 10, " "),
		Price:       math.Round(f.faker.Price(10, 500)),
		Skills:      skills,
		Status:      status,
		CreatorID:   creator.ID,
		ViewCount:   f.Intn(300),
		CreatedAt:   f.pastTime(),
	}
	if err := f.gigs.Create(ctx, gig); err != nil {
		return nil, fmt.Errorf("create gig: %w", err)
	}
	return gig, nil
}

// RecordSearch adds a search history entry.
func (f *Factory) RecordSearch(ctx context.Context, userID uint, query string) error {
	return f.search.Record(ctx, userID, query)
}

// pick returns up to n distinct random elements of pool.
func pick[T any](f *Factory, pool []T, n int) []T {
	if n > len(pool) {
		n = len(pool)
	}
	idx := f.faker.Rand.Perm(len(pool))[:n]
	out := make([]T, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
