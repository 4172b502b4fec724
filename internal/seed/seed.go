package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"creatorhub/internal/database"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Result counts what a run created.
type Result struct {
	Users         int           `json:"users"`
	Content       int           `json:"content"`
	Published     int           `json:"published"`
	Likes         int           `json:"likes"`
	Comments      int           `json:"comments"`
	Subscriptions int           `json:"subscriptions"`
	Conversations int           `json:"conversations"`
	Messages      int           `json:"messages"`
	Gigs          int           `json:"gigs"`
	Searches      int           `json:"searches"`
	Duration      time.Duration `json:"duration"`
}

// Run populates db according to sc.
func Run(ctx context.Context, db *gorm.DB, sc Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	log := middleware.Logger.With(slog.String("scenario", sc.Name))
	log.InfoContext(ctx, "seeding started")

	if sc.Clean {
		if err := Clear(ctx, db); err != nil {
			return nil, err
		}
	}

	cost := bcrypt.DefaultCost
	if sc.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(sc.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f := NewFactory(db, sc.RandomSeed, sc.MaxDays)
	res := &Result{}

	users, err := seedUsers(ctx, f, sc, string(hash))
	if err != nil {
		return nil, err
	}
	res.Users = len(users)
	log.InfoContext(ctx, "users created", slog.Int("count", res.Users))

	published, err := seedContent(ctx, f, sc, users, res)
	if err != nil {
		return nil, err
	}
	if err := seedInteractions(ctx, f, sc, users, published, res); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "content created",
		slog.Int("content", res.Content),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)

	if err := seedSocial(ctx, f, sc, users, res); err != nil {
		return nil, err
	}
	if err := seedGigsAndSearches(ctx, f, sc, users, res); err != nil {
		return nil, err
	}

	res.Duration = time.Since(started)
	log.InfoContext(ctx, "seeding completed",
		slog.Int("subscriptions", res.Subscriptions),
		slog.Int("messages", res.Messages),
		slog.Int("gigs", res.Gigs),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// Clear deletes every row of every persistent table, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	all := database.PersistentModels()
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	middleware.Logger.InfoContext(ctx, "existing data cleared")
	return nil
}

func seedUsers(ctx context.Context, f *Factory, sc Scenario, hash string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(sc.Accounts)+sc.Users)
	for _, acct := range sc.Accounts {
		u, err := f.CreateUser(ctx, acct.Username, hash, func(u *models.User) {
			if acct.Email != "" {
				u.Email = strings.ToLower(acct.Email)
			}
			if acct.Bio != "" {
				u.Bio = acct.Bio
			}
			if acct.Verified {
				u.IsVerified = true
				u.AccountType = models.AccountTypeVerified
			}
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	for i := 0; i < sc.Users; i++ {
		u, err := f.CreateUser(ctx, f.Handle(i+1), hash, func(u *models.User) {
			if f.Chance(0.1) {
				u.IsVerified = true
				u.AccountType = models.AccountTypeVerified
			}
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func seedContent(ctx context.Context, f *Factory, sc Scenario, users []*models.User, res *Result) ([]*models.Content, error) {
	var published []*models.Content
	for _, u := range users {
		for i := 0; i < sc.ContentPerUser; i++ {
			kind := models.ContentTypeImage
			if f.Chance(sc.VideoRatio) {
				kind = models.ContentTypeVideo
			}
			tags := pick(f, sc.Tags, f.Intn(3)+1)
			item, err := f.CreateContent(ctx, u, kind, !f.Chance(sc.DraftRatio), tags)
			if err != nil {
				return nil, err
			}
			res.Content++
			if item.IsPublished {
				res.Published++
				published = append(published, item)
			}
		}
	}
	return published, nil
}

func seedInteractions(ctx context.Context, f *Factory, sc Scenario, users []*models.User, published []*models.Content, res *Result) error {
	for _, item := range published {
		others := excluding(users, item.CreatorID)

		for _, fan := range pick(f, others, f.Intn(sc.LikesPerContent+1)) {
			ok, err := f.Like(ctx, fan.ID, models.ContentTarget(item.ID))
			if err != nil {
				return fmt.Errorf("like content %d: %w", item.ID, err)
			}
			if ok {
				res.Likes++
			}
		}

		var topLevel []*models.Comment
		comments := f.Intn(sc.CommentsPerContent + 1)
		for i := 0; i < comments; i++ {
			if len(others) == 0 {
				break
			}
			author := others[f.Intn(len(others))]
			var parent *models.Comment
			if len(topLevel) > 0 && f.Chance(sc.ReplyRatio) {
				parent = topLevel[f.Intn(len(topLevel))]
			}
			mention := ""
			if f.Chance(0.2) {
				mention = users[f.Intn(len(users))].Username
			}
			c, err := f.CreateComment(ctx, author, item, parent, mention)
			if err != nil {
				return err
			}
			res.Comments++
			if parent == nil {
				topLevel = append(topLevel, c)
			}
		}
	}
	return nil
}

func seedSocial(ctx context.Context, f *Factory, sc Scenario, users []*models.User, res *Result) error {
	for _, u := range users {
		for _, creator := range pick(f, excluding(users, u.ID), sc.SubscriptionsPerUser) {
			created, err := f.Subscribe(ctx, u.ID, creator.ID)
			if err != nil {
				return err
			}
			if created {
				res.Subscriptions++
			}
		}
	}

	if len(users) < 2 {
		return nil
	}
	seen := make(map[[2]uint]bool)
	for attempts := 0; len(seen) < sc.Conversations && attempts < sc.Conversations*4; attempts++ {
		pair := pick(f, users, 2)
		low, high := models.NormalizePair(pair[0].ID, pair[1].ID)
		if seen[[2]uint{low, high}] {
			continue
		}
		seen[[2]uint{low, high}] = true

		_, sent, err := f.Converse(ctx, pair[0], pair[1], sc.MessagesPerConversation)
		if err != nil {
			return err
		}
		res.Conversations++
		res.Messages += sent
	}
	return nil
}

func seedGigsAndSearches(ctx context.Context, f *Factory, sc Scenario, users []*models.User, res *Result) error {
	for _, u := range users {
		for i := 0; i < sc.GigsPerUser; i++ {
			if _, err := f.CreateGig(ctx, u, pick(f, sc.Skills, f.Intn(3)+1)); err != nil {
				return err
			}
			res.Gigs++
		}

		var queries []string
		queries = append(queries, sc.Tags...)
		queries = append(queries, sc.Skills...)
		for i := 0; i < sc.SearchesPerUser && len(queries) > 0; i++ {
			if err := f.RecordSearch(ctx, u.ID, queries[f.Intn(len(queries))]); err != nil {
				return fmt.Errorf("record search: %w", err)
			}
			res.Searches++
		}
	}
	return nil
}

func excluding(users []*models.User, id uint) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}
