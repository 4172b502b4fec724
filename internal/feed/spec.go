// Package feed describes content feeds as plain query specifications.
// A Spec is built from a Filter by pure functions and translated to SQL
// once, by the repository layer.
package feed

// Op is a comparison operator in a Predicate.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpGte      Op = "gte"
	OpIn       Op = "in"
	OpContains Op = "contains"
)

// Column names understood by the content store.
const (
	FieldID        = "id"
	FieldType      = "type"
	FieldPublished = "is_published"
	FieldCreator   = "creator_id"
	FieldCreatedAt = "created_at"
	FieldLikeCount = "like_count"
	FieldViewCount = "view_count"
	FieldTags      = "tags"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// Predicate restricts the result set. For OpIn, Value is a []uint; for
// OpContains, Value is a single tag string.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Sort orders the result set.
type Sort struct {
	Field string
	Desc  bool
}

// Spec is a complete, store-independent feed query.
type Spec struct {
	Predicates []Predicate
	Sorts      []Sort
	Page       int
	Limit      int
}

// Offset is the number of rows skipped before this page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// HasNextPage reports whether rows remain after this page.
func (s Spec) HasNextPage(total int64) bool {
	return total > int64(s.Offset()+s.Limit)
}

// Where returns a copy of s with p appended.
func (s Spec) Where(p Predicate) Spec {
	preds := make([]Predicate, 0, len(s.Predicates)+1)
	preds = append(preds, s.Predicates...)
	s.Predicates = append(preds, p)
	return s
}

// Predicate returns the first predicate on field, if any.
func (s Spec) Predicate(field string) (Predicate, bool) {
	for _, p := range s.Predicates {
		if p.Field == field {
			return p, true
		}
	}
	return Predicate{}, false
}

// NormalizePage clamps page and limit to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
