// Package records holds the record rules shared by both kinds: query
// construction, input validation, aggregation and spreadsheet export.
package records

import (
	"time"

	"finance-tracker/internal/models"
)

const (
	// DefaultLimit caps list results when the caller gives no limit.
	DefaultLimit = 1000
	// MaxLimit is the largest limit a caller may request.
	MaxLimit = 1000
)

// Query selects records of one kind belonging to one owner.
// The zero value is unusable; build one with NewQuery.
type Query struct {
	owner    string
	kind     models.Kind
	start    *time.Time
	end      *time.Time
	category string
	limit    int
}

// NewQuery starts a query scoped to owner. Every store lookup goes through
// a Query, so the owner predicate cannot be left out.
func NewQuery(owner string, kind models.Kind) Query {
	if owner == "" {
		panic("records: query without owner")
	}
	return Query{owner: owner, kind: kind, limit: DefaultLimit}
}

// WithRange bounds the record date inclusively. Nil leaves a side open.
func (q Query) WithRange(start, end *time.Time) Query {
	q.start, q.end = start, end
	return q
}

// WithCategory restricts expense queries to one category.
func (q Query) WithCategory(category string) Query {
	if q.kind == models.KindExpense {
		q.category = category
	}
	return q
}

// WithLimit caps the result count, clamped to [1, MaxLimit].
func (q Query) WithLimit(n int) Query {
	switch {
	case n < 1:
		n = 1
	case n > MaxLimit:
		n = MaxLimit
	}
	q.limit = n
	return q
}

// Unlimited removes the result cap. Used by export.
func (q Query) Unlimited() Query {
	q.limit = 0
	return q
}

func (q Query) Owner() string { return q.owner }
func (q Query) Kind() models.Kind { return q.kind }
func (q Query) Start() *time.Time { return q.start }
func (q Query) End() *time.Time { return q.end }
func (q Query) Category() string { return q.category }

// Limit returns the result cap; 0 means no cap.
func (q Query) Limit() int { return q.limit }
