package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps the log in process memory. It is the default backend
// when no database is configured and the backend unit tests run against.
// A single mutex serializes physical writes so concurrent appends never
// interleave into a corrupt record.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.nextID
	s.nextID++
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter, page Page) (PagedEvents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Event
	for _, e := range s.events {
		if matchesFilter(e, filter) {
			matches = append(matches, e)
		}
	}

	// Stable sort keeps insertion order among equal timestamps.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	total := len(matches)
	offset := page.Offset()
	if offset >= total {
		return PagedEvents{Items: []Event{}, TotalMatching: total}, nil
	}
	end := offset + page.Limit
	if end > total {
		end = total
	}
	items := append([]Event{}, matches[offset:end]...)
	return PagedEvents{Items: items, TotalMatching: total}, nil
}

func (s *InMemoryStore) CountByAction(_ context.Context, action string, day time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day = DayOf(day)
	count := 0
	for _, e := range s.events {
		if e.Action == action && e.Day().Equal(day) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) DistinctActors(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.events, func(e Event) string { return e.Actor }), nil
}

func (s *InMemoryStore) DistinctActions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.events, func(e Event) string { return e.Action }), nil
}

func (s *InMemoryStore) AvailableDates(_ context.Context) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[time.Time]struct{})
	for _, e := range s.events {
		seen[e.Day()] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

func (s *InMemoryStore) Clear(_ context.Context, scope Scope) (int64, error) {
	if !scope.All && scope.Day.IsZero() {
		return 0, ErrInvalidScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if scope.All {
		removed := int64(len(s.events))
		s.events = nil
		return removed, nil
	}

	day := DayOf(scope.Day)
	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.Day().Equal(day) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

func matchesFilter(e Event, f Filter) bool {
	if !f.AllDates && !f.Date.IsZero() && !e.Day().Equal(f.Date) {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	return true
}

func distinct(events []Event, key func(Event) string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, e := range events {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, k)
	}
	sort.Strings(values)
	return values
}
