package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Booking mirrors the bookings table.  One booking aggregates all seats of
// a purchase; the per-seat price snapshots live in booking_seats.  Rows are
// created only by the booking transaction and their seats are released only
// by cancellation.
type Booking struct {
	ID               uint64    `json:"id"`
	EventID          uint64    `json:"event_id"`
	CustomerName     string    `json:"customer_name"`
	CustomerPhone    string    `json:"customer_phone"`
	CustomerEmail    *string   `json:"customer_email,omitempty"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
	Status           string    `json:"status"` // PENDING | CONFIRMED | CANCELLED
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BookingSeat mirrors the booking_seats table: one row per seat with the
// price the seat sold at.
type BookingSeat struct {
	BookingID  uint64 `json:"-"`
	SeatID     uint64 `json:"seat_id"`
	Section    string `json:"section,omitempty"`
	RowLabel   string `json:"row,omitempty"`
	SeatNumber uint32 `json:"number,omitempty"`
	Category   string `json:"category,omitempty"`
	PriceCents uint32 `json:"price_cents"`
}

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides persistence for bookings and their seats.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking within an existing transaction, populating the
// generated ID and timestamps on the provided record.  The caller commits
// or rolls back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *Booking) error {
	const q = `INSERT INTO bookings (event_id, customer_name, customer_phone, customer_email, total_amount_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.EventID, b.CustomerName, b.CustomerPhone, b.CustomerEmail, b.TotalAmountCents, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// CreateSeatsBulkTx inserts the booking_seats rows for one booking in a
// single statement.  Passing an empty slice has no effect.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.BookingID, s.SeatID, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// BookingDetail is a booking joined with its event title and seats, as
// returned to the back office.
type BookingDetail struct {
	Booking
	EventTitle string        `json:"event_title"`
	Seats      []BookingSeat `json:"seats"`
}

// GetByID loads one booking with its seats.  Returns ErrBookingNotFound
// when the id does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*BookingDetail, error) {
	const q = `SELECT b.id, b.event_id, b.customer_name, b.customer_phone, b.customer_email,
	                  b.total_amount_cents, b.status, b.created_at, b.updated_at, e.title
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.id = ?`
	var d BookingDetail
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.EventID, &d.CustomerName, &d.CustomerPhone, &email,
		&d.TotalAmountCents, &d.Status, &d.CreatedAt, &d.UpdatedAt, &d.EventTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if email.Valid {
		d.CustomerEmail = &email.String
	}
	d.Seats = []BookingSeat{}
	const seatQ = `SELECT bs.seat_id, s.section, s.row_label, s.seat_number, s.category, bs.price_cents
	               FROM booking_seats bs
	               JOIN seats s ON s.id = bs.seat_id
	               WHERE bs.booking_id = ?
	               ORDER BY s.section, s.pos_y, s.pos_x`
	rows, err := r.db.QueryContext(ctx, seatQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s BookingSeat
		if err := rows.Scan(&s.SeatID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents); err != nil {
			return nil, err
		}
		s.BookingID = id
		d.Seats = append(d.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByEvent returns all bookings of an event, newest first, with their
// seats populated in a second query.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.event_id, b.customer_name, b.customer_phone, b.customer_email,
	                  b.total_amount_cents, b.status, b.created_at, b.updated_at, e.title
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.event_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var email sql.NullString
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.CustomerName, &d.CustomerPhone, &email,
			&d.TotalAmountCents, &d.Status, &d.CreatedAt, &d.UpdatedAt, &d.EventTitle,
		); err != nil {
			return nil, err
		}
		if email.Valid {
			d.CustomerEmail = &email.String
		}
		d.Seats = []BookingSeat{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT bs.booking_id, bs.seat_id, s.section, s.row_label, s.seat_number, s.category, bs.price_cents
	          FROM booking_seats bs
	          JOIN seats s ON s.id = bs.seat_id
	          WHERE bs.booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY bs.booking_id, s.section, s.pos_y, s.pos_x`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var s BookingSeat
		if err := srows.Scan(&s.BookingID, &s.SeatID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents); err != nil {
			return nil, err
		}
		if idx, ok := index[s.BookingID]; ok {
			details[idx].Seats = append(details[idx].Seats, s)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetForCancelTx locks one booking row and returns its status and seat ids.
// Returns ErrBookingNotFound when the id does not exist.
func (r *BookingRepo) GetForCancelTx(ctx context.Context, tx *sql.Tx, id uint64) (string, []uint64, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrBookingNotFound
		}
		return "", nil, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = ?`, id)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()
	var seatIDs []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return "", nil, err
		}
		seatIDs = append(seatIDs, sid)
	}
	return status, seatIDs, rows.Err()
}

// SetStatusTx updates a booking's status within a transaction.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}
