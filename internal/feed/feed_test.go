package feed

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestBuild_Variants(t *testing.T) {
	t.Parallel()

	t.Run("ForYou", func(t *testing.T) {
		spec, err := Build(Filter{}, nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, []Predicate{{Field: FieldPublished, Op: OpEq, Value: true}}, spec.Predicates)
		assert.Equal(t, []Sort{{Field: FieldCreatedAt, Desc: true}, {Field: FieldLikeCount, Desc: true}}, spec.Sorts)
		assert.Equal(t, DefaultPage, spec.Page)
		assert.Equal(t, DefaultLimit, spec.Limit)
	})

	t.Run("Subscribed", func(t *testing.T) {
		spec, err := Build(Filter{Variant: Subscribed}, []uint{3, 9}, fixedNow)
		require.NoError(t, err)
		p, ok := spec.Predicate(FieldCreator)
		require.True(t, ok)
		assert.Equal(t, OpIn, p.Op)
		assert.Equal(t, []uint{3, 9}, p.Value)
	})

	t.Run("Subscribed Without Subscriptions", func(t *testing.T) {
		spec, err := Build(Filter{Variant: Subscribed}, nil, fixedNow)
		require.NoError(t, err)
		p, ok := spec.Predicate(FieldCreator)
		require.True(t, ok)
		assert.Empty(t, p.Value)
	})

	t.Run("Trending", func(t *testing.T) {
		spec, err := Build(Filter{Variant: Trending}, nil, fixedNow)
		require.NoError(t, err)
		p, ok := spec.Predicate(FieldCreatedAt)
		require.True(t, ok)
		assert.Equal(t, OpGte, p.Op)
		assert.Equal(t, fixedNow.Add(-7*24*time.Hour), p.Value)
		assert.Equal(t, []Sort{{Field: FieldViewCount, Desc: true}, {Field: FieldLikeCount, Desc: true}}, spec.Sorts)
	})

	t.Run("Tag", func(t *testing.T) {
		spec, err := Build(Filter{Variant: Tag, Tag: " travel "}, nil, fixedNow)
		require.NoError(t, err)
		p, ok := spec.Predicate(FieldTags)
		require.True(t, ok)
		assert.Equal(t, "travel", p.Value)

		spec, err = Build(Filter{Variant: Tag, Tag: " #Travel"}, nil, fixedNow)
		require.NoError(t, err)
		p, _ = spec.Predicate(FieldTags)
		assert.Equal(t, "travel", p.Value, "filter uses the stored tag form")

		_, err = Build(Filter{Variant: Tag}, nil, fixedNow)
		assert.Error(t, err)
		_, err = Build(Filter{Variant: Tag, Tag: " # "}, nil, fixedNow)
		assert.Error(t, err)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Build(Filter{Variant: "life"}, nil, fixedNow)
		assert.Error(t, err)
	})
}

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"travel":     "travel",
		"  Travel  ": "travel",
		"#Travel":    "travel",
		" # Food":    "food",
		"tr_vel":     "tr_vel",
		"#":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTag(in), in)
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, ForYou, v)

	v, err = ParseVariant("Trending")
	require.NoError(t, err)
	assert.Equal(t, Trending, v)

	_, err = ParseVariant("bogus")
	assert.Error(t, err)
}

func TestVideos_ExcludesInitial(t *testing.T) {
	t.Parallel()
	spec := Videos(2, 5, 42)
	p, ok := spec.Predicate(FieldID)
	require.True(t, ok)
	assert.Equal(t, OpNeq, p.Op)
	assert.Equal(t, uint(42), p.Value)
	assert.Equal(t, 5, spec.Offset())

	_, ok = Videos(1, 5, 0).Predicate(FieldID)
	assert.False(t, ok)
}

func TestHasNextPage(t *testing.T) {
	t.Parallel()
	spec := Spec{Page: 2, Limit: 10}
	assert.True(t, spec.HasNextPage(21))
	assert.False(t, spec.HasNextPage(20))
	assert.False(t, spec.HasNextPage(0))
}

func TestSpec_WhereDoesNotAlias(t *testing.T) {
	t.Parallel()
	base := Spec{Predicates: make([]Predicate, 1, 4)}
	a := base.Where(Predicate{Field: "a"})
	b := base.Where(Predicate{Field: "b"})
	assert.Equal(t, "a", a.Predicates[1].Field)
	assert.Equal(t, "b", b.Predicates[1].Field)
	assert.Len(t, base.Predicates, 1)
}

func TestBuild_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	variants := gen.OneConstOf(ForYou, Subscribed, Trending)

	properties.Property("every variant only shows published content", prop.ForAll(
		func(v Variant, page, limit int) bool {
			spec, err := Build(Filter{Variant: v, Page: page, Limit: limit}, []uint{1}, fixedNow)
			if err != nil {
				return false
			}
			p, ok := spec.Predicate(FieldPublished)
			return ok && p.Value == true
		},
		variants, gen.IntRange(-5, 100), gen.IntRange(-5, 500),
	))

	properties.Property("page and limit are always clamped", prop.ForAll(
		func(v Variant, page, limit int) bool {
			spec, _ := Build(Filter{Variant: v, Page: page, Limit: limit}, nil, fixedNow)
			return spec.Page >= 1 && spec.Limit >= 1 && spec.Limit <= MaxLimit && spec.Offset() >= 0
		},
		variants, gen.IntRange(-5, 100), gen.IntRange(-5, 500),
	))

	properties.Property("pages partition the result set", prop.ForAll(
		func(total, limit int) bool {
			pages := 0
			for page := 1; ; page++ {
				spec := Spec{Page: page, Limit: limit}
				pages++
				if !spec.HasNextPage(int64(total)) {
					break
				}
			}
			want := (total + limit - 1) / limit
			if want == 0 {
				want = 1
			}
			return pages == want
		},
		gen.IntRange(0, 300), gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestURLBuilder(t *testing.T) {
	t.Parallel()
	b := NewURLBuilder("https://cdn.example.com/")

	assert.Equal(t, "https://cdn.example.com/uploads/content/media/a.mp4", b.Media("uploads/content/media/a.mp4"))
	assert.Equal(t, "", b.Media(""))

	thumb := "uploads/content/thumbnail/t.jpg"
	require.NotNil(t, b.Thumbnail(&thumb))
	assert.Equal(t, "https://cdn.example.com/uploads/content/thumbnail/t.jpg", *b.Thumbnail(&thumb))
	assert.Nil(t, b.Thumbnail(nil))

	assert.Nil(t, b.Profile(""))
	assert.Equal(t, "https://cdn.example.com/uploads/profile/p.webp", *b.Profile("uploads/profile/p.webp"))

	abs := "https://bucket.r2.dev/x.png"
	assert.Equal(t, abs, *b.Thumbnail(&abs))
}
