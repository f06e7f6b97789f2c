package handler

import (
	"time"

	"hirelog/internal/activity"
)

type eventResponse struct {
	ID         int64  `json:"id"`
	OccurredAt string `json:"occurred_at"`
	Actor      string `json:"actor"`
	Origin     string `json:"origin,omitempty"`
	Action     string `json:"action"`
	Kind       string `json:"kind"`
	TargetID   string `json:"target_id,omitempty"`
	Details    string `json:"details,omitempty"`
}

func toEventResponse(e activity.Event) eventResponse {
	return eventResponse{
		ID:         e.ID,
		OccurredAt: e.Timestamp.Format(time.RFC3339),
		Actor:      e.Actor,
		Origin:     e.ActorOrigin,
		Action:     e.Action,
		Kind:       string(e.Kind),
		TargetID:   e.TargetID,
		Details:    e.Details,
	}
}

type listResponse struct {
	Items []eventResponse `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func toListResponse(result activity.PagedEvents, page activity.Page) listResponse {
	items := make([]eventResponse, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, toEventResponse(e))
	}
	p := page.Page
	if p < 1 {
		p = 1
	}
	return listResponse{
		Items: items,
		Total: result.TotalMatching,
		Page:  p,
		Limit: page.Limit,
	}
}

type summaryResponse struct {
	Date          string `json:"date"`
	Views         int    `json:"views"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	StatusChanges int    `json:"status_changes"`
}

type filtersResponse struct {
	Actors  []string `json:"actors"`
	Actions []string `json:"actions"`
	Dates   []string `json:"dates"`
}

type clearResponse struct {
	Deleted int64 `json:"deleted"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}
