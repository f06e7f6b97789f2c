package activity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists the activity log in PostgreSQL. Appends are single
// INSERTs and clears are single DELETE statements, so each is atomic with
// respect to concurrent writers at the storage layer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed activity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO activity_events (occurred_at, actor, actor_origin, action, kind, target_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		event.Actor,
		event.ActorOrigin,
		event.Action,
		string(event.Kind),
		event.TargetID,
		event.Details,
	)
	if err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}
	return nil
}

// filterClause assembles the WHERE clause and args for a filter. Args are
// positional starting at $1.
func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	if !f.Date.IsZero() {
		from := DayOf(f.Date)
		args = append(args, from, from.AddDate(0, 0, 1))
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d AND occurred_at < $%d", len(args)-1, len(args)))
	}
	if f.Actor != "" {
		args = append(args, f.Actor)
		conds = append(conds, fmt.Sprintf("actor = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.TargetID != "" {
		args = append(args, f.TargetID)
		conds = append(conds, fmt.Sprintf("target_id = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, page Page) (PagedEvents, error) {
	where, args := filterClause(filter)

	// Total is a separate count query, deliberately independent of the page
	// fetch so TotalMatching holds for any page/limit combination.
	var total int
	countQuery := "SELECT COUNT(*) FROM activity_events" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return PagedEvents{}, fmt.Errorf("count activity events: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, occurred_at, actor, actor_origin, action, kind, target_id, details
		FROM activity_events%s
		ORDER BY occurred_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return PagedEvents{}, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	items, err := scanEvents(rows)
	if err != nil {
		return PagedEvents{}, err
	}
	return PagedEvents{Items: items, TotalMatching: total}, nil
}

func (s *PostgresStore) CountByAction(ctx context.Context, action string, day time.Time) (int, error) {
	from := DayOf(day)
	query := `
		SELECT COUNT(*) FROM activity_events
		WHERE action = $1 AND occurred_at >= $2 AND occurred_at < $3
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, action, from, from.AddDate(0, 0, 1)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by action: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DistinctActors(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "actor")
}

func (s *PostgresStore) DistinctActions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "action")
}

func (s *PostgresStore) distinct(ctx context.Context, column string) ([]string, error) {
	// column is one of two fixed identifiers, never caller input.
	query := fmt.Sprintf("SELECT DISTINCT %s FROM activity_events ORDER BY %s", column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct %s: %w", column, err)
	}
	return values, nil
}

func (s *PostgresStore) AvailableDates(ctx context.Context) ([]time.Time, error) {
	query := `
		SELECT DISTINCT (occurred_at AT TIME ZONE 'UTC')::date AS day
		FROM activity_events
		ORDER BY day DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query available dates: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan available date: %w", err)
		}
		days = append(days, DayOf(day))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available dates: %w", err)
	}
	return days, nil
}

func (s *PostgresStore) Clear(ctx context.Context, scope Scope) (int64, error) {
	if !scope.All && scope.Day.IsZero() {
		return 0, ErrInvalidScope
	}

	var (
		res sql.Result
		err error
	)
	if scope.All {
		res, err = s.db.ExecContext(ctx, `DELETE FROM activity_events`)
	} else {
		from := DayOf(scope.Day)
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM activity_events WHERE occurred_at >= $1 AND occurred_at < $2`,
			from, from.AddDate(0, 0, 1),
		)
	}
	if err != nil {
		return 0, fmt.Errorf("clear activity events: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear activity events: rows affected: %w", err)
	}
	return removed, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	events := []Event{}
	for rows.Next() {
		var (
			e    Event
			kind string
		)
		err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&e.Actor,
			&e.ActorOrigin,
			&e.Action,
			&kind,
			&e.TargetID,
			&e.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		e.Kind = Kind(kind)
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity events: %w", err)
	}
	return events, nil
}
