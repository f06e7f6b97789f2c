package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"hirelog/internal/activity"
)

// defaultLimit matches the dashboard's default page size.
const defaultLimit = 50

// RecordRequest is the HTTP request body for POST /activity. Actor and
// origin come from the identity middleware, never from the body.
type RecordRequest struct {
	Action   string `json:"action"`
	TargetID string `json:"target_id"`
	Details  string `json:"details"`
}

// Validate validates the request.
func (r *RecordRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request body is required")
	}
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return fmt.Errorf("action is required")
	}
	if len(r.Action) > 100 {
		return fmt.Errorf("action must be at most 100 characters")
	}
	return nil
}

// parseListQuery maps GET /activity query parameters onto a filter and page.
// date accepts YYYY-MM-DD or "all"; omitting it keeps the service's
// default-to-today behavior.
func parseListQuery(q url.Values) (activity.Filter, activity.Page, error) {
	var filter activity.Filter

	switch date := strings.TrimSpace(q.Get("date")); date {
	case "":
	case "all":
		filter.AllDates = true
	default:
		day, err := activity.ParseDay(date)
		if err != nil {
			return activity.Filter{}, activity.Page{}, fmt.Errorf("date must be YYYY-MM-DD or \"all\"")
		}
		filter.Date = day
	}

	filter.Actor = q.Get("actor")
	filter.Action = q.Get("action")
	filter.TargetID = q.Get("target")

	page := activity.Page{Limit: defaultLimit, Page: 1}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return activity.Filter{}, activity.Page{}, fmt.Errorf("limit must be an integer")
		}
		page.Limit = limit
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return activity.Filter{}, activity.Page{}, fmt.Errorf("page must be an integer")
		}
		page.Page = n
	}
	return filter, page, nil
}

// ClearRequest is the HTTP request body for DELETE /activity. The explicit
// confirm flag is the second step of the confirm-then-execute flow; the UI
// shows the dialog, this field proves the acknowledgment reached us.
type ClearRequest struct {
	Scope   string `json:"scope"`
	Confirm bool   `json:"confirm"`

	parsedScope activity.Scope
}

// Validate validates and parses the request.
func (r *ClearRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request body is required")
	}
	if !r.Confirm {
		return fmt.Errorf("confirm must be true to clear the activity log")
	}
	switch scope := strings.TrimSpace(r.Scope); scope {
	case "":
		return fmt.Errorf("scope is required")
	case "all":
		r.parsedScope = activity.ScopeAll()
	default:
		day, err := activity.ParseDay(scope)
		if err != nil {
			return fmt.Errorf("scope must be YYYY-MM-DD or \"all\"")
		}
		r.parsedScope = activity.ScopeDay(day)
	}
	return nil
}

// Scope returns the parsed clear scope. Only valid after Validate.
func (r *ClearRequest) ParsedScope() activity.Scope {
	return r.parsedScope
}
