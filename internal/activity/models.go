// Package activity implements the append-only activity log: the event
// record model, the writer, the filtered/paginated query engine, the
// aggregation views that feed the reporting dashboard, and the bulk
// retention operation. It is transport-agnostic; the HTTP facade lives in
// the handler subpackage.
package activity

import (
	"strings"
	"time"
)

// Kind classifies an action into the closed set the dashboard knows how to
// aggregate. The freeform action literal is kept alongside it so ad hoc
// actions display verbatim instead of being rejected.
type Kind string

const (
	KindView         Kind = "view"
	KindCreate       Kind = "create"
	KindUpdate       Kind = "update"
	KindDelete       Kind = "delete"
	KindExport       Kind = "export"
	KindLogin        Kind = "login"
	KindStatusChange Kind = "status_change"
	KindOther        Kind = "other"
)

var actionKinds = map[string]Kind{
	"view":          KindView,
	"create":        KindCreate,
	"update":        KindUpdate,
	"delete":        KindDelete,
	"export":        KindExport,
	"login":         KindLogin,
	"status_change": KindStatusChange,
}

// KindOf classifies a normalized action literal. Unknown actions map to
// KindOther; the literal itself is preserved on the event.
func KindOf(action string) Kind {
	if kind, ok := actionKinds[action]; ok {
		return kind
	}
	return KindOther
}

// NormalizeAction trims and lowercases an action literal so storage and
// filtering compare a single canonical form.
func NormalizeAction(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MaxDetailsLen bounds the free-text details field. Longer input is
// truncated, never rejected.
const MaxDetailsLen = 2000

// Event is one immutable activity log entry. The actor is a denormalized
// display name captured at write time so the log stays readable after the
// user record is renamed or removed; TargetID is an opaque reference to the
// business record the action concerned, empty for actions with no single
// target (login, bulk export).
type Event struct {
	ID          int64     // store-assigned insertion sequence
	Timestamp   time.Time // writer-assigned, UTC
	Actor       string
	ActorOrigin string // best-effort caller IP, may be empty
	Action      string // normalized literal, displayed and filtered verbatim
	Kind        Kind
	TargetID    string
	Details     string
}

// Day returns the UTC calendar day the event falls on. Days partition the
// log for filtering, aggregation, and retention.
func (e Event) Day() time.Time {
	return DayOf(e.Timestamp)
}

// DayOf truncates a time to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayFormat is the wire format for calendar days in filters and responses.
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD day into its UTC midnight.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, s, time.UTC)
}
