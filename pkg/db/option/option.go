package option

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type queryOptionFunc func(stmt *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(stmt *gorm.DB) *gorm.DB {
	return f(stmt)
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single field comparison to the statement.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return stmt
		}
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return stmt.Where(fmt.Sprintf("%s %s ?", field, op), cond.Value)
	})
}

// QuerySortBy describes a requested sort with an allowlist of sortable columns.
type QuerySortBy struct {
	Field string
	Order string
	Allow map[string]bool
}

// WithQuerySortBy builds a QuerySortBy from raw request values.
func WithQuerySortBy(field, order string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		Field: strings.TrimSpace(field),
		Order: strings.TrimSpace(order),
		Allow: allow,
	}
}

// WithSortBy orders the statement by an allowlisted column. Unknown columns
// fall back to created_at desc.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		field := strings.ToLower(sort.Field)
		if field == "" || sort.Allow == nil || !sort.Allow[field] {
			field = "created_at"
		}
		order := strings.ToLower(sort.Order)
		if order != "asc" && order != "desc" {
			order = "desc"
		}
		return stmt.Order(fmt.Sprintf("%s %s", field, order))
	})
}

// ApplyPagination applies a decoded cursor and the page window. Callers
// fetch one row beyond the page size to detect another page. Cursor parts
// are bound as native values so the comparison holds on every dialect.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		size := page.Limit()
		if token := strings.TrimSpace(page.PageToken); token != "" {
			if at, id, ok := decodeCursorParts(token); ok {
				stmt = stmt.Where(
					"created_at < ? OR (created_at = ? AND id < ?)",
					at, at, id,
				)
			}
		}
		return stmt.Limit(size + 1)
	})
}

func decodeCursorParts(token string) (time.Time, int64, bool) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil || cursor == nil {
		return time.Time{}, 0, false
	}
	at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	if err != nil {
		return time.Time{}, 0, false
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return time.Time{}, 0, false
	}
	return at, id.Int64(), true
}
