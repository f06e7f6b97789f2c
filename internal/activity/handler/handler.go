// Package handler is the thin HTTP facade over the activity service used by
// the surrounding recruitment application. It maps request parameters onto
// filter values, enforces the confirm-then-execute flow for the destructive
// clear endpoint, and keeps business logic out of the transport layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hirelog/internal/activity"
	"hirelog/internal/platform/middleware"
	"hirelog/pkg/platform/sentinel"
	"hirelog/pkg/requestcontext"
)

// Service defines the activity operations the facade exposes.
type Service interface {
	Record(ctx context.Context, entry activity.Entry) error
	Query(ctx context.Context, filter activity.Filter, page activity.Page) (activity.PagedEvents, error)
	DaySummary(ctx context.Context, day time.Time) (activity.DaySummary, error)
	DistinctActors(ctx context.Context) ([]string, error)
	DistinctActions(ctx context.Context) ([]string, error)
	AvailableDates(ctx context.Context) ([]time.Time, error)
	Clear(ctx context.Context, scope activity.Scope) (int64, error)
}

// Handler handles the activity log endpoints.
type Handler struct {
	logger     *slog.Logger
	service    Service
	signingKey string
	adminToken string
}

// New creates the activity Handler.
func New(service Service, logger *slog.Logger, signingKey, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		signingKey: signingKey,
		adminToken: adminToken,
	}
}

// Register registers the activity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	activityRouter := chi.NewRouter()
	activityRouter.Use(middleware.Recovery(h.logger))
	activityRouter.Use(middleware.RequestID)
	activityRouter.Use(middleware.RequestTime)
	activityRouter.Use(middleware.Logger(h.logger))
	activityRouter.Use(middleware.RequireIdentity(h.signingKey, h.logger))

	activityRouter.Post("/activity", h.handleRecord)
	activityRouter.Get("/activity", h.handleList)
	activityRouter.Get("/activity/summary", h.handleSummary)
	activityRouter.Get("/activity/filters", h.handleFilters)
	activityRouter.With(middleware.RequireAdminToken(h.adminToken, h.logger)).
		Delete("/activity", h.handleClear)

	r.Mount("/", activityRouter)
}

// handleRecord appends one event on behalf of the authenticated actor.
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		// Should never happen once RequireIdentity is mounted.
		h.logger.ErrorContext(ctx, "actor missing from context despite identity middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		h.writeError(w, http.StatusInternalServerError, "internal_error", "identity context error")
		return
	}

	details := req.Details
	if details == "" && activity.KindOf(activity.NormalizeAction(req.Action)) == activity.KindLogin {
		if desc := requestcontext.ClientDesc(ctx); desc != "" {
			details = "signed in via " + desc
		}
	}

	err := h.service.Record(ctx, activity.Entry{
		Actor:    actor,
		Origin:   requestcontext.Origin(ctx),
		Action:   req.Action,
		TargetID: req.TargetID,
		Details:  details,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleList serves the filtered, paginated log for the reporting views.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r.URL.Query())
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Query(r.Context(), filter, page)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListResponse(result, page))
}

// handleSummary serves the dashboard tile counts for one day (today when
// the date parameter is omitted).
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := activity.DayOf(requestcontext.Now(ctx))
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := activity.ParseDay(raw)
		if err != nil {
			h.writeBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.service.DaySummary(ctx, day)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summaryResponse{
		Date:          summary.Day.Format(activity.DayFormat),
		Views:         summary.Views,
		Created:       summary.Created,
		Updated:       summary.Updated,
		StatusChanges: summary.StatusChanges,
	})
}

// handleFilters serves the dropdown population for the reporting filters.
func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actors, err := h.service.DistinctActors(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	actions, err := h.service.DistinctActions(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	days, err := h.service.AvailableDates(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dates := make([]string, 0, len(days))
	for _, day := range days {
		dates = append(dates, day.Format(activity.DayFormat))
	}
	if actors == nil {
		actors = []string{}
	}
	if actions == nil {
		actions = []string{}
	}
	h.writeJSON(w, http.StatusOK, filtersResponse{
		Actors:  actors,
		Actions: actions,
		Dates:   dates,
	})
}

// handleClear executes the confirmed bulk delete. The admin token
// middleware has already run; the confirm flag is validated here so a
// failure re-presents the dialog instead of assuming success.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	deleted, err := h.service.Clear(ctx, req.ParsedScope())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, clearResponse{Deleted: deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, description string) {
	h.writeError(w, http.StatusBadRequest, "invalid_request", description)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, description string) {
	h.writeJSON(w, status, errorResponse{Error: code, Description: description})
}

// writeServiceError maps service errors onto HTTP statuses: validation
// sentinels are the caller's fault, storage faults are a retryable 503 the
// views render as "failed to load", distinct from an empty result.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, activity.ErrInvalidLimit),
		errors.Is(err, activity.ErrActorRequired),
		errors.Is(err, activity.ErrActionRequired),
		errors.Is(err, activity.ErrInvalidScope):
		h.writeBadRequest(w, err.Error())
	case errors.Is(err, sentinel.ErrUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "try again")
	default:
		h.logger.ErrorContext(r.Context(), "unexpected service error",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		h.writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
