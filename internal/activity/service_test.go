package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/suite"

	"hirelog/pkg/platform/sentinel"
	"hirelog/pkg/requestcontext"
)

// failingStore simulates an unreachable backend for error-path tests.
type failingStore struct{}

var errConnRefused = errors.New("connection refused")

func (failingStore) Append(context.Context, Event) error { return errConnRefused }
func (failingStore) List(context.Context, Filter, Page) (PagedEvents, error) {
	return PagedEvents{}, errConnRefused
}
func (failingStore) CountByAction(context.Context, string, time.Time) (int, error) {
	return 0, errConnRefused
}
func (failingStore) DistinctActors(context.Context) ([]string, error)  { return nil, errConnRefused }
func (failingStore) DistinctActions(context.Context) ([]string, error) { return nil, errConnRefused }
func (failingStore) AvailableDates(context.Context) ([]time.Time, error) {
	return nil, errConnRefused
}
func (failingStore) Clear(context.Context, Scope) (int64, error) { return 0, errConnRefused }

type ServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = New(s.store, discardLogger())
	s.now = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ServiceSuite) record(entry Entry) {
	s.T().Helper()
	s.Require().NoError(s.service.Record(s.ctx, entry))
}

// TestRecordValidation verifies actor and action are required after trimming.
func (s *ServiceSuite) TestRecordValidation() {
	err := s.service.Record(s.ctx, Entry{Actor: "   ", Action: "view"})
	s.Require().ErrorIs(err, ErrActorRequired)

	err = s.service.Record(s.ctx, Entry{Actor: "Jane Doe", Action: "  "})
	s.Require().ErrorIs(err, ErrActionRequired)
}

// TestRecordNormalization verifies lowercasing, classification, and the
// ad hoc action escape hatch.
func (s *ServiceSuite) TestRecordNormalization() {
	s.record(Entry{Actor: "Jane Doe", Action: "  Status_Change ", TargetID: " rec-7 "})
	s.record(Entry{Actor: "Jane Doe", Action: "Sent Offer Letter"})

	result, err := s.service.Query(s.ctx, Filter{AllDates: true}, Page{Limit: 10, Page: 1})
	s.Require().NoError(err)
	s.Require().Len(result.Items, 2)

	byAction := make(map[string]Event)
	for _, e := range result.Items {
		byAction[e.Action] = e
	}

	known := byAction["status_change"]
	s.Equal(KindStatusChange, known.Kind)
	s.Equal("rec-7", known.TargetID)

	adHoc := byAction["sent offer letter"]
	s.Equal(KindOther, adHoc.Kind)
	s.Equal("sent offer letter", adHoc.Action, "literal preserved for display")
}

// TestRecordTruncatesDetails verifies the details bound and that truncation
// never splits a multi-byte rune.
func (s *ServiceSuite) TestRecordTruncatesDetails() {
	s.record(Entry{
		Actor:   "Jane Doe",
		Action:  "update",
		Details: strings.Repeat("x", MaxDetailsLen+500),
	})

	// A three-byte rune straddling the bound must be dropped whole.
	s.record(Entry{
		Actor:   "Jane Doe",
		Action:  "update",
		Details: strings.Repeat("x", MaxDetailsLen-1) + "日本語",
	})

	result, err := s.service.Query(s.ctx, Filter{AllDates: true}, Page{Limit: 10, Page: 1})
	s.Require().NoError(err)
	s.Require().Len(result.Items, 2)
	for _, e := range result.Items {
		s.LessOrEqual(len(e.Details), MaxDetailsLen)
		s.True(utf8.ValidString(e.Details), "truncated details must stay valid UTF-8")
	}
	s.Equal(MaxDetailsLen, len(result.Items[0].Details))
	s.Equal(MaxDetailsLen-1, len(result.Items[1].Details), "partial rune removed, not kept")
}

// TestWriterAssignsTimestamp verifies the writer owns the clock and keeps
// stamps monotonically non-decreasing even when the wall clock steps back.
func (s *ServiceSuite) TestWriterAssignsTimestamp() {
	s.record(Entry{Actor: "Jane Doe", Action: "view"})

	earlier := requestcontext.WithTime(context.Background(), s.now.Add(-time.Hour))
	s.Require().NoError(s.service.Record(earlier, Entry{Actor: "Jane Doe", Action: "view"}))

	result, err := s.service.Query(s.ctx, Filter{AllDates: true}, Page{Limit: 10, Page: 1})
	s.Require().NoError(err)
	s.Require().Len(result.Items, 2)
	s.Equal(s.now, result.Items[0].Timestamp)
	s.Equal(s.now, result.Items[1].Timestamp, "backwards clock step is clamped")
}

// TestQueryDefaultsToToday verifies the preserved default-date behavior.
func (s *ServiceSuite) TestQueryDefaultsToToday() {
	yesterday := requestcontext.WithTime(context.Background(), s.now.Add(-24*time.Hour))
	s.Require().NoError(s.service.Record(yesterday, Entry{Actor: "Jane Doe", Action: "create"}))
	s.record(Entry{Actor: "Jane Doe", Action: "view"})

	s.Run("omitted date means today", func() {
		result, err := s.service.Query(s.ctx, Filter{}, Page{Limit: 10, Page: 1})
		s.Require().NoError(err)
		s.Require().Equal(1, result.TotalMatching)
		s.Equal("view", result.Items[0].Action)
	})

	s.Run("today with no events is an empty page, not a fallback", func() {
		empty := requestcontext.WithTime(context.Background(), s.now.Add(48*time.Hour))
		result, err := s.service.Query(empty, Filter{}, Page{Limit: 10, Page: 1})
		s.Require().NoError(err)
		s.Equal(0, result.TotalMatching)
		s.Empty(result.Items)
	})

	s.Run("all dates lifts the constraint", func() {
		result, err := s.service.Query(s.ctx, Filter{AllDates: true}, Page{Limit: 10, Page: 1})
		s.Require().NoError(err)
		s.Equal(2, result.TotalMatching)
	})

	s.Run("filter action is normalized", func() {
		result, err := s.service.Query(s.ctx, Filter{AllDates: true, Action: " VIEW "}, Page{Limit: 10, Page: 1})
		s.Require().NoError(err)
		s.Equal(1, result.TotalMatching)
	})
}

// TestQueryPagination verifies limit validation and page clamping.
func (s *ServiceSuite) TestQueryPagination() {
	s.record(Entry{Actor: "Jane Doe", Action: "view"})

	_, err := s.service.Query(s.ctx, Filter{}, Page{Limit: 0, Page: 1})
	s.Require().ErrorIs(err, ErrInvalidLimit)

	_, err = s.service.Query(s.ctx, Filter{}, Page{Limit: -5, Page: 1})
	s.Require().ErrorIs(err, ErrInvalidLimit)

	result, err := s.service.Query(s.ctx, Filter{}, Page{Limit: 10, Page: 0})
	s.Require().NoError(err)
	s.Equal(1, result.TotalMatching)
	s.Len(result.Items, 1, "page below 1 is clamped to the first page")
}

// TestDaySummary verifies the dashboard tiles agree with CountByAction.
func (s *ServiceSuite) TestDaySummary() {
	for i := 0; i < 3; i++ {
		s.record(Entry{Actor: "Jane Doe", Action: "view"})
	}
	s.record(Entry{Actor: "Jane Doe", Action: "create"})
	s.record(Entry{Actor: "Jane Doe", Action: "status_change"})

	summary, err := s.service.DaySummary(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(3, summary.Views)
	s.Equal(1, summary.Created)
	s.Equal(0, summary.Updated)
	s.Equal(1, summary.StatusChanges)
}

// TestClear verifies scope validation and the scoped delete.
func (s *ServiceSuite) TestClear() {
	s.record(Entry{Actor: "Jane Doe", Action: "view"})

	_, err := s.service.Clear(s.ctx, Scope{})
	s.Require().ErrorIs(err, ErrInvalidScope)

	removed, err := s.service.Clear(s.ctx, ScopeDay(s.now))
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	removed, err = s.service.Clear(s.ctx, ScopeAll())
	s.Require().NoError(err)
	s.Equal(int64(0), removed, "clearing an empty log is not an error")
}

// TestStorageFaultTranslation verifies every operation surfaces backend
// faults as sentinel.ErrUnavailable while keeping the underlying cause in
// the chain.
func (s *ServiceSuite) TestStorageFaultTranslation() {
	svc := New(failingStore{}, discardLogger())

	check := func(err error) {
		s.T().Helper()
		s.Require().ErrorIs(err, sentinel.ErrUnavailable)
		s.Require().ErrorIs(err, errConnRefused, "store error preserved in the chain")
	}

	check(svc.Record(s.ctx, Entry{Actor: "Jane Doe", Action: "view"}))

	_, err := svc.Query(s.ctx, Filter{}, Page{Limit: 10, Page: 1})
	check(err)

	_, err = svc.CountByAction(s.ctx, "view", s.now)
	check(err)

	_, err = svc.DistinctActors(s.ctx)
	check(err)

	_, err = svc.DistinctActions(s.ctx)
	check(err)

	_, err = svc.AvailableDates(s.ctx)
	check(err)

	_, err = svc.Clear(s.ctx, ScopeAll())
	check(err)
}

// TestMirrorNeverBlocks verifies a full mirror inbox drops the copy while
// the durable write succeeds.
func (s *ServiceSuite) TestMirrorNeverBlocks() {
	inbox := make(chan Event, 1)
	svc := New(s.store, discardLogger(), WithMirror(inbox))

	s.Require().NoError(svc.Record(s.ctx, Entry{Actor: "Jane Doe", Action: "view"}))
	s.Require().NoError(svc.Record(s.ctx, Entry{Actor: "Jane Doe", Action: "update"}))

	result, err := svc.Query(s.ctx, Filter{AllDates: true}, Page{Limit: 10, Page: 1})
	s.Require().NoError(err)
	s.Equal(2, result.TotalMatching, "both events durably recorded")

	s.Len(inbox, 1, "second copy dropped, not queued")
	mirrored := <-inbox
	s.Equal("view", mirrored.Action)
}
