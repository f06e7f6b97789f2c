package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"hirelog/internal/platform/metrics"
	"hirelog/pkg/platform/sentinel"
	"hirelog/pkg/requestcontext"
)

// Entry is the writer's input. Timestamp is never caller-supplied; the
// writer stamps it from its own clock so ordering within a process is
// consistent.
type Entry struct {
	Actor    string
	Origin   string
	Action   string
	TargetID string
	Details  string
}

// SummaryCache caches per-day per-action counts for the dashboard tiles.
// Implementations must treat a miss as (0, false, nil), not an error.
type SummaryCache interface {
	GetCount(ctx context.Context, action string, day time.Time) (int, bool, error)
	SetCount(ctx context.Context, action string, day time.Time, count int) error
	InvalidateDay(ctx context.Context, day time.Time) error
	InvalidateAll(ctx context.Context) error
}

// DaySummary holds the dashboard tile counts for one calendar day.
type DaySummary struct {
	Day           time.Time
	Views         int
	Created       int
	Updated       int
	StatusChanges int
}

// Service owns the append path and the read views over the activity store.
// It exclusively assigns timestamps, normalizes and classifies actions,
// resolves the default date filter, and translates storage faults into
// sentinel.ErrUnavailable so callers can discriminate with errors.Is.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	cache   SummaryCache
	mirror  chan<- Event
	tracer  trace.Tracer

	// last guards the monotonic non-decreasing timestamp invariant for this
	// writer instance; wall clocks can step backwards.
	mu   sync.Mutex
	last time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithMetrics wires Prometheus counters and histograms.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSummaryCache wires a cache consulted by CountByAction and DaySummary
// and invalidated by Clear.
func WithSummaryCache(c SummaryCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMirror wires a channel that receives a copy of every recorded event
// for downstream publishing. Sends never block: when the inbox is full the
// mirror copy is dropped and counted, the durable write is unaffected.
func WithMirror(inbox chan<- Event) Option {
	return func(s *Service) { s.mirror = inbox }
}

// New creates the activity service over the given store.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("hirelog/activity"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record appends exactly one immutable event. Actor and action are required
// after trimming; the action is lowercased and classified, unknown literals
// land in KindOther and display verbatim. A storage fault is reported as an
// error wrapping sentinel.ErrUnavailable — callers decide whether their
// primary operation proceeds, and are expected not to abort it over a
// failed log write.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	ctx, span := s.tracer.Start(ctx, "activity.Record")
	defer span.End()

	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		return ErrActorRequired
	}
	action := NormalizeAction(entry.Action)
	if action == "" {
		return ErrActionRequired
	}

	details := truncateDetails(entry.Details)

	event := Event{
		Timestamp:   s.stamp(ctx),
		Actor:       actor,
		ActorOrigin: strings.TrimSpace(entry.Origin),
		Action:      action,
		Kind:        KindOf(action),
		TargetID:    strings.TrimSpace(entry.TargetID),
		Details:     details,
	}

	if err := s.store.Append(ctx, event); err != nil {
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.IncrementRecordFailures()
		}
		s.logger.ErrorContext(ctx, "activity append failed",
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("append activity event: %w: %w", sentinel.ErrUnavailable, err)
	}

	if s.metrics != nil {
		s.metrics.IncrementEventsRecorded(string(event.Kind))
	}
	s.publishMirror(ctx, event)
	return nil
}

// truncateDetails enforces the details bound, backing off to a rune
// boundary so truncation never leaves invalid UTF-8.
func truncateDetails(details string) string {
	if len(details) <= MaxDetailsLen {
		return details
	}
	cut := MaxDetailsLen
	for cut > 0 && !utf8.RuneStart(details[cut]) {
		cut--
	}
	return details[:cut]
}

// stamp returns the request clock, clamped so timestamps never decrease
// within this writer instance.
func (s *Service) stamp(ctx context.Context) time.Time {
	now := requestcontext.Now(ctx).UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return now
}

func (s *Service) publishMirror(ctx context.Context, event Event) {
	if s.mirror == nil {
		return
	}
	select {
	case s.mirror <- event:
	default:
		if s.metrics != nil {
			s.metrics.IncrementMirrorDropped()
		}
		s.logger.WarnContext(ctx, "mirror inbox full, event copy dropped",
			"action", event.Action,
		)
	}
}

// Query returns one page of the filtered log plus the total match count.
// An omitted date means "today" per the dashboard's default, even when today
// has no events; Filter.AllDates lifts the date constraint entirely. Pages
// beyond the last return empty items with the correct total.
func (s *Service) Query(ctx context.Context, filter Filter, page Page) (PagedEvents, error) {
	ctx, span := s.tracer.Start(ctx, "activity.Query")
	defer span.End()

	if page.Limit <= 0 {
		return PagedEvents{}, ErrInvalidLimit
	}
	if page.Page < 1 {
		page.Page = 1
	}
	filter = s.resolveFilter(ctx, filter)

	start := time.Now()
	result, err := s.store.List(ctx, filter, page)
	if s.metrics != nil {
		s.metrics.ObserveQueryDuration(time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		return PagedEvents{}, fmt.Errorf("query activity events: %w: %w", sentinel.ErrUnavailable, err)
	}
	return result, nil
}

// resolveFilter applies the default-to-today date policy and normalizes the
// action literal so filters compare against the stored form.
func (s *Service) resolveFilter(ctx context.Context, filter Filter) Filter {
	if filter.AllDates {
		filter.Date = time.Time{}
	} else if filter.Date.IsZero() {
		filter.Date = DayOf(requestcontext.Now(ctx))
	} else {
		filter.Date = DayOf(filter.Date)
	}
	filter.Action = NormalizeAction(filter.Action)
	return filter
}

// CountByAction counts events with the given normalized action on the given
// day, consulting the summary cache when one is wired.
func (s *Service) CountByAction(ctx context.Context, action string, day time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "activity.CountByAction")
	defer span.End()

	action = NormalizeAction(action)
	day = DayOf(day)

	if s.cache != nil {
		if count, ok, err := s.cache.GetCount(ctx, action, day); err != nil {
			s.logger.WarnContext(ctx, "summary cache read failed", "error", err)
		} else if ok {
			return count, nil
		}
	}

	count, err := s.store.CountByAction(ctx, action, day)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("count by action: %w: %w", sentinel.ErrUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.SetCount(ctx, action, day, count); err != nil {
			s.logger.WarnContext(ctx, "summary cache write failed", "error", err)
		}
	}
	return count, nil
}

// DaySummary computes the dashboard tile counts for one day.
func (s *Service) DaySummary(ctx context.Context, day time.Time) (DaySummary, error) {
	day = DayOf(day)
	summary := DaySummary{Day: day}

	tiles := []struct {
		action string
		dest   *int
	}{
		{string(KindView), &summary.Views},
		{string(KindCreate), &summary.Created},
		{string(KindUpdate), &summary.Updated},
		{string(KindStatusChange), &summary.StatusChanges},
	}
	for _, tile := range tiles {
		count, err := s.CountByAction(ctx, tile.action, day)
		if err != nil {
			return DaySummary{}, err
		}
		*tile.dest = count
	}
	return summary, nil
}

// DistinctActors enumerates every actor ever recorded, for filter dropdowns.
func (s *Service) DistinctActors(ctx context.Context) ([]string, error) {
	actors, err := s.store.DistinctActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct actors: %w: %w", sentinel.ErrUnavailable, err)
	}
	return actors, nil
}

// DistinctActions enumerates every normalized action literal observed,
// including ad hoc ones classified as other.
func (s *Service) DistinctActions(ctx context.Context) ([]string, error) {
	actions, err := s.store.DistinctActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct actions: %w: %w", sentinel.ErrUnavailable, err)
	}
	return actions, nil
}

// AvailableDates lists the days holding at least one event, most recent
// first, so a date selector can fall back to the last populated day.
func (s *Service) AvailableDates(ctx context.Context) ([]time.Time, error) {
	days, err := s.store.AvailableDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("available dates: %w: %w", sentinel.ErrUnavailable, err)
	}
	return days, nil
}

// Clear irreversibly deletes every event in scope and returns the removed
// count. Confirmation is the boundary's job: this method trusts that the
// caller obtained an explicit, separate acknowledgment. On failure the
// store is left in its prior state.
func (s *Service) Clear(ctx context.Context, scope Scope) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "activity.Clear")
	defer span.End()

	if !scope.All && scope.Day.IsZero() {
		return 0, ErrInvalidScope
	}

	removed, err := s.store.Clear(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("clear activity events: %w: %w", sentinel.ErrUnavailable, err)
	}

	if s.cache != nil {
		var cacheErr error
		if scope.All {
			cacheErr = s.cache.InvalidateAll(ctx)
		} else {
			cacheErr = s.cache.InvalidateDay(ctx, scope.Day)
		}
		if cacheErr != nil {
			s.logger.WarnContext(ctx, "summary cache invalidation failed", "error", cacheErr)
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementClears()
	}
	s.logger.InfoContext(ctx, "activity log cleared",
		"all", scope.All,
		"removed", removed,
	)
	return removed, nil
}
