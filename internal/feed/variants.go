package feed

import (
	"fmt"
	"strings"
	"time"

	"creatorhub/internal/models"
)

// Variant names a ranking/filtering strategy over published content.
type Variant string

const (
	ForYou     Variant = "for-you"
	Subscribed Variant = "subscribed"
	Trending   Variant = "trending"
	Tag        Variant = "tag"
)

// NormalizeTag is the canonical stored form of a tag: trimmed, without a
// leading '#', lowercased.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#")))
}

// TrendingWindow bounds how far back the trending feed looks.
const TrendingWindow = 7 * 24 * time.Hour

// Filter is the caller-facing feed request.
type Filter struct {
	Variant Variant
	Tag     string
	Page    int
	Limit   int
}

// ParseVariant maps a query value to a Variant. Empty means ForYou.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ForYou, nil
	case ForYou, Subscribed, Trending, Tag:
		return v, nil
	default:
		return "", fmt.Errorf("unknown feed %q", s)
	}
}

func published() Predicate {
	return Predicate{Field: FieldPublished, Op: OpEq, Value: true}
}

// Build maps a filter to a Spec. creatorIDs lists the creators the viewer
// actively subscribes to and is only consulted by the subscribed variant.
func Build(f Filter, creatorIDs []uint, now time.Time) (Spec, error) {
	page, limit := NormalizePage(f.Page, f.Limit)
	spec := Spec{Predicates: []Predicate{published()}, Page: page, Limit: limit}

	variant := f.Variant
	if variant == "" {
		variant = ForYou
	}

	switch variant {
	case ForYou:
		spec.Sorts = []Sort{{Field: FieldCreatedAt, Desc: true}, {Field: FieldLikeCount, Desc: true}}
	case Subscribed:
		ids := append([]uint(nil), creatorIDs...)
		spec = spec.Where(Predicate{Field: FieldCreator, Op: OpIn, Value: ids})
		spec.Sorts = []Sort{{Field: FieldCreatedAt, Desc: true}}
	case Trending:
		spec = spec.Where(Predicate{Field: FieldCreatedAt, Op: OpGte, Value: now.Add(-TrendingWindow)})
		spec.Sorts = []Sort{{Field: FieldViewCount, Desc: true}, {Field: FieldLikeCount, Desc: true}}
	case Tag:
		tag := NormalizeTag(f.Tag)
		if tag == "" {
			return Spec{}, fmt.Errorf("tag feed requires a tag")
		}
		spec = spec.Where(Predicate{Field: FieldTags, Op: OpContains, Value: tag})
		spec.Sorts = []Sort{{Field: FieldCreatedAt, Desc: true}}
	default:
		return Spec{}, fmt.Errorf("unknown feed %q", variant)
	}
	return spec, nil
}

// Videos builds the vertical video feed. A non-zero excludeID is left out of
// the page because the caller prepends it.
func Videos(page, limit int, excludeID uint) Spec {
	page, limit = NormalizePage(page, limit)
	spec := Spec{
		Predicates: []Predicate{
			published(),
			{Field: FieldType, Op: OpEq, Value: string(models.ContentTypeVideo)},
		},
		Sorts: []Sort{{Field: FieldCreatedAt, Desc: true}},
		Page:  page,
		Limit: limit,
	}
	if excludeID != 0 {
		spec = spec.Where(Predicate{Field: FieldID, Op: OpNeq, Value: excludeID})
	}
	return spec
}
