package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Event mirrors the events table.  Events own no seats at creation; the
// seat catalog is generated separately and the booking flow only ever reads
// event rows.
type Event struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Venue       string    `json:"venue"`
	Category    string    `json:"category"`
	Image       *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides CRUD operations for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts a new event and populates its generated ID and timestamps.
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	const q = `INSERT INTO events (title, description, starts_at, venue, category, image)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.StartsAt.UTC(), e.Venue, e.Category, e.Image)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM events WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	const q = `SELECT id, title, description, starts_at, venue, category, image, created_at, updated_at
	           FROM events WHERE id = ?`
	var e Event
	var desc, img sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Title, &desc, &e.StartsAt, &e.Venue, &e.Category, &img, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	if img.Valid {
		e.Image = &img.String
	}
	return &e, nil
}

// EventFilter narrows List results.  Zero values mean "no filter".
type EventFilter struct {
	Search   string // matched against title and description with LIKE
	Category string
	Venue    string
	Limit    int
	Offset   int
}

// List returns events matching the filter, newest start date first, along
// with the total number of matches for pagination.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]Event, int64, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Venue != "" {
		where = append(where, "venue = ?")
		args = append(args, f.Venue)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, title, description, starts_at, venue, category, image, created_at, updated_at
	      FROM events` + cond + ` ORDER BY starts_at DESC`
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var e Event
		var desc, img sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &desc, &e.StartsAt, &e.Venue, &e.Category, &img, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if desc.Valid {
			e.Description = &desc.String
		}
		if img.Valid {
			e.Image = &img.String
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListIDs returns the ids of all events.  Used by the bulk catalog
// population path.
func (r *EventRepo) ListIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update overwrites the mutable fields of an event.  Returns
// ErrEventNotFound when the id does not exist.
func (r *EventRepo) Update(ctx context.Context, e *Event) error {
	const q = `UPDATE events
	           SET title = ?, description = ?, starts_at = ?, venue = ?, category = ?, image = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.StartsAt.UTC(), e.Venue, e.Category, e.Image, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "missing" from "identical values": affected rows is 0
		// for both under MySQL defaults.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, e.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes an event together with its seats and holds.  It refuses
// with ErrConflict when confirmed bookings exist, so sold events cannot
// vanish from under their buyers.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var confirmed int64
	const cq = `SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = 'CONFIRMED'`
	if err := tx.QueryRowContext(ctx, cq, id).Scan(&confirmed); err != nil {
		return err
	}
	if confirmed > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE event_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE event_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
