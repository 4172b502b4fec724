package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"creatorhub/internal/feed"
	"creatorhub/internal/models"
	"creatorhub/internal/notifications"
	"creatorhub/internal/push"
	"creatorhub/internal/repository"
	"creatorhub/internal/storage"
	"creatorhub/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testURLs = feed.NewURLBuilder("http://cdn.test")

// recordingNotifier captures notifications instead of persisting them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotificationInput
}

func (n *recordingNotifier) Notify(_ context.Context, in NotificationInput) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, in)
}

func (n *recordingNotifier) recipients() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]uint, len(n.sent))
	for i, in := range n.sent {
		out[i] = in.UserID
	}
	return out
}

func (n *recordingNotifier) ofType(t models.NotificationType) []NotificationInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NotificationInput
	for _, in := range n.sent {
		if in.Type == t {
			out = append(out, in)
		}
	}
	return out
}

// fakeSender records pushes and reports the configured tokens as stale.
type fakeSender struct {
	mu     sync.Mutex
	sends  [][]string
	last   push.Message
	stale  []string
	sendFn func([]string) error
}

func (f *fakeSender) Send(_ context.Context, tokens []string, msg push.Message) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, tokens)
	f.last = msg
	if f.sendFn != nil {
		if err := f.sendFn(tokens); err != nil {
			return f.stale, err
		}
	}
	return f.stale, nil
}

// env wires real repositories over a private sqlite database.
type env struct {
	db       *gorm.DB
	users    repository.UserRepository
	content  repository.ContentRepository
	inter    repository.InteractionRepository
	subs     repository.SubscriptionRepository
	chat     repository.ChatRepository
	notifs   repository.NotificationRepository
	devices  repository.DeviceRepository
	gigs     repository.GigRepository
	search   repository.SearchRepository
	bus      *notifications.MemoryBus
	store    *storage.LocalStore
	notifier *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &env{
		db:       db,
		users:    repository.NewUserRepository(db),
		content:  repository.NewContentRepository(db),
		inter:    repository.NewInteractionRepository(db),
		subs:     repository.NewSubscriptionRepository(db),
		chat:     repository.NewChatRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		devices:  repository.NewDeviceRepository(db),
		gigs:     repository.NewGigRepository(db),
		search:   repository.NewSearchRepository(db),
		bus:      notifications.NewMemoryBus(),
		store:    storage.NewLocalStore(t.TempDir()),
		notifier: &recordingNotifier{},
	}
}

func (e *env) feeds() *FeedService {
	return NewFeedService(e.content, e.subs, e.inter, testURLs)
}

func (e *env) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *env) post(t *testing.T, creatorID uint, title string, mutate ...func(*models.Content)) *models.Content {
	t.Helper()
	c := &models.Content{
		Title:       title,
		Type:        models.ContentTypeImage,
		MediaPath:   "uploads/content/media/" + title + ".jpg",
		IsPublished: true,
		CreatorID:   creatorID,
	}
	for _, m := range mutate {
		m(c)
	}
	require.NoError(t, e.db.Omit("Creator").Create(c).Error)
	return c
}

func asVideo(c *models.Content) {
	c.Type = models.ContentTypeVideo
	thumb := "uploads/content/thumbnail/" + c.Title + ".jpg"
	c.ThumbnailPath = &thumb
}

func asDraft(c *models.Content) { c.IsPublished = false }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}
