package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Account is a fixed, predictable user created before the generated ones.
type Account struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
	Verified bool   `yaml:"verified"`
}

// Scenario describes how much demo data to generate.
// Per-item counts are upper bounds; users never like, subscribe to or
// message themselves, so small populations produce fewer rows.
type Scenario struct {
	Name       string `yaml:"name"`
	Clean      bool   `yaml:"clean"`
	RandomSeed int64  `yaml:"random_seed"`
	Password   string `yaml:"password"`
	// FastHash hashes the shared password with the minimum bcrypt cost.
	FastHash bool `yaml:"fast_hash"`
	MaxDays  int  `yaml:"max_days"`

	Accounts []Account `yaml:"accounts"`
	Users    int       `yaml:"users"`

	ContentPerUser     int     `yaml:"content_per_user"`
	VideoRatio         float64 `yaml:"video_ratio"`
	DraftRatio         float64 `yaml:"draft_ratio"`
	LikesPerContent    int     `yaml:"likes_per_content"`
	CommentsPerContent int     `yaml:"comments_per_content"`
	ReplyRatio         float64 `yaml:"reply_ratio"`

	SubscriptionsPerUser    int `yaml:"subscriptions_per_user"`
	Conversations           int `yaml:"conversations"`
	MessagesPerConversation int `yaml:"messages_per_conversation"`
	GigsPerUser             int `yaml:"gigs_per_user"`
	SearchesPerUser         int `yaml:"searches_per_user"`

	Tags   []string `yaml:"tags"`
	Skills []string `yaml:"skills"`
}

// DefaultScenario is a small but fully connected data set.
func DefaultScenario() Scenario {
	return Scenario{
		Name:                    "default",
		Clean:                   true,
		Password:                "Password123!",
		MaxDays:                 60,
		Accounts:                []Account{{Username: "demo", Email: "demo@example.com", Bio: "Demo creator account.", Verified: true}},
		Users:                   20,
		ContentPerUser:          3,
		VideoRatio:              0.4,
		DraftRatio:              0.1,
		LikesPerContent:         5,
		CommentsPerContent:      3,
		ReplyRatio:              0.3,
		SubscriptionsPerUser:    4,
		Conversations:           10,
		MessagesPerConversation: 6,
		GigsPerUser:             1,
		SearchesPerUser:         2,
		Tags:                    []string{"art", "music", "travel", "food", "fitness", "gaming", "tech", "fashion", "photography", "comedy"},
		Skills:                  []string{"design", "illustration", "editing", "photography", "copywriting", "animation", "music", "voiceover"},
	}
}

var presets = map[string]func() Scenario{
	"default": DefaultScenario,
	"minimal": func() Scenario {
		s := DefaultScenario()
		s.Name = "minimal"
		s.Users = 3
		s.ContentPerUser = 1
		s.LikesPerContent = 2
		s.CommentsPerContent = 1
		s.SubscriptionsPerUser = 1
		s.Conversations = 1
		s.MessagesPerConversation = 2
		s.SearchesPerUser = 1
		return s
	},
	"populated": func() Scenario {
		s := DefaultScenario()
		s.Name = "populated"
		s.Users = 200
		s.ContentPerUser = 8
		s.LikesPerContent = 30
		s.CommentsPerContent = 8
		s.SubscriptionsPerUser = 15
		s.Conversations = 150
		s.MessagesPerConversation = 20
		s.GigsPerUser = 2
		s.SearchesPerUser = 5
		return s
	},
}

// Preset returns a built-in scenario by name.
func Preset(name string) (Scenario, error) {
	build, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown seed preset %q", name)
	}
	return build(), nil
}

// LoadScenario reads a YAML scenario file. Fields the file omits keep their
// DefaultScenario values.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read seed scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes YAML over DefaultScenario and validates the result.
func ParseScenario(raw []byte) (Scenario, error) {
	s := DefaultScenario()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse seed scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate rejects scenarios that cannot be generated.
func (s Scenario) Validate() error {
	var errs []error
	for name, n := range map[string]int{
		"users":                     s.Users,
		"content_per_user":          s.ContentPerUser,
		"likes_per_content":         s.LikesPerContent,
		"comments_per_content":      s.CommentsPerContent,
		"subscriptions_per_user":    s.SubscriptionsPerUser,
		"conversations":             s.Conversations,
		"messages_per_conversation": s.MessagesPerConversation,
		"gigs_per_user":             s.GigsPerUser,
		"searches_per_user":         s.SearchesPerUser,
	} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	for name, r := range map[string]float64{
		"video_ratio": s.VideoRatio,
		"draft_ratio": s.DraftRatio,
		"reply_ratio": s.ReplyRatio,
	} {
		if r < 0 || r > 1 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 1", name))
		}
	}
	if s.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if s.ContentPerUser > 0 && len(s.Tags) == 0 {
		errs = append(errs, errors.New("tags are required when generating content"))
	}
	if s.GigsPerUser > 0 && len(s.Skills) == 0 {
		errs = append(errs, errors.New("skills are required when generating gigs"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid seed scenario %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}
