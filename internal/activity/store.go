package activity

import (
	"context"
	"errors"
	"math"
	"time"
)

// Validation errors surfaced directly to callers. Storage faults wrap
// sentinel.ErrUnavailable instead.
var (
	ErrActorRequired  = errors.New("actor is required")
	ErrActionRequired = errors.New("action is required")
	ErrInvalidLimit   = errors.New("limit must be a positive integer")
	ErrInvalidScope   = errors.New("clear scope is required")
)

// Filter restricts a query. Zero fields are unconstrained, except Date: a
// zero Date with AllDates false means "today", resolved by the service
// against the request clock. AllDates exists so an unfiltered query spanning
// the whole log is still expressible.
type Filter struct {
	Date     time.Time // UTC midnight of the calendar day
	AllDates bool
	Actor    string // exact, case-sensitive as stored
	Action   string // exact against the normalized literal
	TargetID string
}

// Page is 1-based pagination. The engine accepts any positive limit; the
// dashboard offers 25/50/100/200 but that is a presentation choice.
type Page struct {
	Limit int
	Page  int
}

// Offset computes the row offset after clamping the page number to 1. The
// multiplication saturates at math.MaxInt so an absurd page number lands on
// the empty-page path instead of wrapping negative.
func (p Page) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	if p.Limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (page - 1) * p.Limit
}

// PagedEvents is one page of a filtered result set. TotalMatching counts
// every event satisfying the filter regardless of pagination so callers can
// render "showing X-Y of N" and page controls.
type PagedEvents struct {
	Items         []Event
	TotalMatching int
}

// Scope selects what a Clear removes: one calendar day or the entire log.
type Scope struct {
	All bool
	Day time.Time
}

// ScopeDay scopes a clear to a single UTC calendar day.
func ScopeDay(day time.Time) Scope { return Scope{Day: DayOf(day)} }

// ScopeAll scopes a clear to the entire log.
func ScopeAll() Scope { return Scope{All: true} }

// Store is the persistence contract the activity service requires: atomic
// append, predicate-filtered reads with ordering and pagination, aggregate
// views, and atomic range delete. Results are ordered by timestamp
// descending with ties broken by insertion order.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter, page Page) (PagedEvents, error)
	CountByAction(ctx context.Context, action string, day time.Time) (int, error)
	DistinctActors(ctx context.Context) ([]string, error)
	DistinctActions(ctx context.Context) ([]string, error)
	AvailableDates(ctx context.Context) ([]time.Time, error)
	Clear(ctx context.Context, scope Scope) (int64, error)
}
