package audit

import (
	"context"
	"time"

	"poolside/internal/adapters/storage"
	domain "poolside/internal/domain/audit"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = `SELECT id, timestamp, category, action, outcome, viewer_id, resource_id, message, ip_address FROM audit_event`

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event has an id and timestamp
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, category, action, outcome, viewer_id, resource_id, message, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(dateLayout), string(event.Category), string(event.Action),
		string(event.Outcome), event.ViewerID, event.ResourceID, event.Message, event.IPAddress)
	return err
}

// List returns audit events with optional filtering.
// PRE: limit > 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := selectColumns + ` WHERE 1=1`
	args := []any{}

	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Action != nil {
		query += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.Outcome != nil {
		query += " AND outcome = ?"
		args = append(args, string(*filter.Outcome))
	}
	if filter.ViewerID != nil {
		query += " AND viewer_id = ?"
		args = append(args, *filter.ViewerID)
	}
	if filter.ResourceID != nil {
		query += " AND resource_id = ?"
		args = append(args, *filter.ResourceID)
	}

	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID retrieves a specific audit event.
// PRE: id is non-empty
// POST: Returns the event or sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.Event, error) {
	var e domain.Event
	var timestamp string
	err := row.Scan(&e.ID, &timestamp, &e.Category, &e.Action, &e.Outcome, &e.ViewerID, &e.ResourceID, &e.Message, &e.IPAddress)
	if err != nil {
		return domain.Event{}, err
	}
	e.Timestamp, _ = time.Parse(dateLayout, timestamp)
	return e, nil
}
