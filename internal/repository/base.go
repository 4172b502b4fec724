// Package repository implements the data access layer over gorm.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"creatorhub/internal/feed"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

const pgUniqueViolation = "23505"

// IsDuplicate reports whether err is a unique constraint violation. Errors
// from connections opened with TranslateError arrive as gorm.ErrDuplicatedKey;
// raw postgres errors are matched on their SQLSTATE.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var specColumns = map[string]bool{
	feed.FieldID:        true,
	feed.FieldType:      true,
	feed.FieldPublished: true,
	feed.FieldCreator:   true,
	feed.FieldCreatedAt: true,
	feed.FieldLikeCount: true,
	feed.FieldViewCount: true,
	feed.FieldTags:      true,
}

// ApplySpec adds the predicates and sorts of s to a query on contents.
// Pagination is left to the caller so the same scope can be counted.
func ApplySpec(q *gorm.DB, s feed.Spec) (*gorm.DB, error) {
	for _, p := range s.Predicates {
		if !specColumns[p.Field] {
			return nil, fmt.Errorf("feed: unknown field %q", p.Field)
		}
		col := "contents." + p.Field

		switch p.Op {
		case feed.OpEq:
			q = q.Where(col+" = ?", p.Value)
		case feed.OpNeq:
			q = q.Where(col+" <> ?", p.Value)
		case feed.OpGte:
			q = q.Where(col+" >= ?", p.Value)
		case feed.OpIn:
			ids, ok := p.Value.([]uint)
			if !ok {
				return nil, fmt.Errorf("feed: %s in expects []uint, got %T", p.Field, p.Value)
			}
			if len(ids) == 0 {
				q = q.Where("1 = 0")
				continue
			}
			q = q.Where(col+" IN ?", ids)
		case feed.OpContains:
			tag, ok := p.Value.(string)
			if !ok {
				return nil, fmt.Errorf("feed: %s contains expects string, got %T", p.Field, p.Value)
			}
			q = q.Where(col+" LIKE ?"+likeEscape, jsonElementPattern(tag))
		default:
			return nil, fmt.Errorf("feed: unsupported operator %q", p.Op)
		}
	}

	for _, s := range s.Sorts {
		if !specColumns[s.Field] {
			return nil, fmt.Errorf("feed: unknown sort field %q", s.Field)
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: "contents", Name: s.Field}, Desc: s.Desc})
	}
	// stable pages
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: "contents", Name: "id"}, Desc: true})
	return q, nil
}

// likeEscape follows every LIKE built from user input.
const likeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// jsonElementPattern matches a string element inside a JSON-serialized list column.
func jsonElementPattern(value string) string {
	encoded, _ := json.Marshal(value)
	return "%" + escapeLike(string(encoded)) + "%"
}

// containsPattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func containsPattern(q string) string {
	return "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// prefixPattern builds a case-insensitive prefix pattern for LOWER(col) LIKE ?.
func prefixPattern(prefix string) string {
	return escapeLike(strings.ToLower(prefix)) + "%"
}
