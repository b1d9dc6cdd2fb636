package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Seat mirrors the seats table.  (EventID, Section, RowLabel, SeatNumber)
// is unique within an event.  PriceCents is fixed at catalog-generation
// time from the event's tier price map; later price changes go through
// UpdateCategoryPriceTx and never retroactively touch bookings.  IsBooked
// flips to true only inside the booking transaction and back to false only
// through cancellation.
type Seat struct {
	ID         uint64    `json:"id"`
	EventID    uint64    `json:"event_id"`
	Section    string    `json:"section"`
	RowLabel   string    `json:"row"`
	SeatNumber uint32    `json:"number"`
	Category   string    `json:"category"`
	PriceCents uint32    `json:"price_cents"`
	IsBooked   bool      `json:"is_booked"`
	PosX       uint32    `json:"x"`
	PosY       uint32    `json:"y"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// SeatRepo provides data access to the seats table.  It is the authority
// for availability: every booked/available transition goes through the
// conditional updates below.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (event_id, section, row_label, seat_number, category, price_cents, is_booked, pos_x, pos_y) VALUES `
	args := make([]interface{}, 0, len(seats)*9)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.EventID, s.Section, s.RowLabel, s.SeatNumber, s.Category, s.PriceCents, s.IsBooked, s.PosX, s.PosY)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// CountByEvent returns the number of seats generated for an event.  The
// populate path checks this before inserting so catalog generation stays
// idempotent per event.
func (r *SeatRepo) CountByEvent(ctx context.Context, eventID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

// SeatStatus is the derived availability of a seat as shown to browsers:
// BOOKED from the seat row itself, HELD from a live hold, AVAILABLE
// otherwise.
type SeatStatus struct {
	Seat
	Status string `json:"status"` // AVAILABLE | HELD | BOOKED
}

// ListWithStatus returns every seat of an event with its derived status,
// ordered by section and grid position.  Row labels repeat the alphabet
// past Z (AA, AB, ...) and do not sort lexically, so ordering goes by
// pos_y/pos_x instead.  Hold expiry is evaluated in the query, so stale
// holds show as AVAILABLE even before a writer cleans them up.
func (r *SeatRepo) ListWithStatus(ctx context.Context, eventID uint64) ([]SeatStatus, error) {
	const q = `SELECT s.id, s.event_id, s.section, s.row_label, s.seat_number, s.category,
	                  s.price_cents, s.is_booked, s.pos_x, s.pos_y,
	                  CASE
	                      WHEN s.is_booked THEN 'BOOKED'
	                      WHEN h.id IS NOT NULL THEN 'HELD'
	                      ELSE 'AVAILABLE'
	                  END
	           FROM seats s
	           LEFT JOIN seat_holds h ON h.seat_id = s.id AND h.expires_at > UTC_TIMESTAMP()
	           WHERE s.event_id = ?
	           ORDER BY s.section, s.pos_y, s.pos_x`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SeatStatus
	for rows.Next() {
		var s SeatStatus
		if err := rows.Scan(
			&s.ID, &s.EventID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.Category,
			&s.PriceCents, &s.IsBooked, &s.PosX, &s.PosY, &s.Status,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CategoryPrices derives the current tier price map for an event from its
// seats.  All seats of one tier share one price; the write path maintains
// that invariant.  An event without seats yields an empty map, not an
// error: the caller decides whether to trigger catalog generation.
func (r *SeatRepo) CategoryPrices(ctx context.Context, eventID uint64) (map[string]uint32, error) {
	const q = `SELECT DISTINCT category, price_cents FROM seats WHERE event_id = ?`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]uint32)
	for rows.Next() {
		var cat string
		var price uint32
		if err := rows.Scan(&cat, &price); err != nil {
			return nil, err
		}
		prices[cat] = price
	}
	return prices, rows.Err()
}

// UpdateCategoryPriceTx sets the price of every seat of one tier under one
// event in a single statement, which makes the write atomic per category.
// It returns the number of seats touched.  Already-booked seats are
// repriced too: the booking keeps its own price snapshot in booking_seats,
// so historical totals are unaffected.
func (r *SeatRepo) UpdateCategoryPriceTx(ctx context.Context, tx *sql.Tx, eventID uint64, category string, priceCents uint32) (int64, error) {
	const q = `UPDATE seats SET price_cents = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE event_id = ? AND category = ?`
	res, err := tx.ExecContext(ctx, q, priceCents, eventID, category)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// seatQuerier is satisfied by both *sql.DB and *sql.Tx.
type seatQuerier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// FilterAvailableTx returns, with row locks, the requested seats that can
// be taken right now: they exist under the event, are not booked, and are
// not held under a different live hold token.  Pass holdToken "" when the
// caller has no hold.  Any requested id absent from the result is booked,
// held by someone else, or nonexistent; the result does not say which.
func (r *SeatRepo) FilterAvailableTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64, holdToken string) ([]Seat, error) {
	return filterAvailable(ctx, tx, eventID, seatIDs, holdToken, true)
}

// FilterAvailable is the lock-free read variant of FilterAvailableTx.  The
// booking path uses it after a rolled-back flip to report which requested
// seats are actually gone; the result must never feed a write.
func (r *SeatRepo) FilterAvailable(ctx context.Context, eventID uint64, seatIDs []uint64, holdToken string) ([]Seat, error) {
	return filterAvailable(ctx, r.db, eventID, seatIDs, holdToken, false)
}

func filterAvailable(ctx context.Context, qr seatQuerier, eventID uint64, seatIDs []uint64, holdToken string, lock bool) ([]Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(seatIDs))
	placeholders = placeholders[:len(placeholders)-1]
	q := `SELECT s.id, s.event_id, s.section, s.row_label, s.seat_number, s.category, s.price_cents
	      FROM seats s
	      LEFT JOIN seat_holds h ON h.seat_id = s.id
	           AND h.expires_at > UTC_TIMESTAMP()
	           AND h.hold_token <> ?
	      WHERE s.event_id = ? AND s.id IN (` + placeholders + `) AND s.is_booked = 0 AND h.id IS NULL`
	if lock {
		q += `
	      FOR UPDATE`
	}
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, holdToken, eventID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := qr.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// MarkBookedTx flips the given seats to booked with a conditional update
// and returns the number of rows actually flipped.  Seats already booked
// are untouched, so the caller can compare the count against its
// expectation and roll the whole batch back on a mismatch.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(seatIDs))
	placeholders = placeholders[:len(placeholders)-1]
	q := `UPDATE seats SET is_booked = 1, updated_at = CURRENT_TIMESTAMP
	      WHERE event_id = ? AND id IN (` + placeholders + `) AND is_booked = 0`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, eventID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkAvailableTx releases the given seats back to available.  Marking an
// already-available seat is a no-op, so the call is idempotent; it returns
// the number of seats actually released.
func (r *SeatRepo) MarkAvailableTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(seatIDs))
	placeholders = placeholders[:len(placeholders)-1]
	q := `UPDATE seats SET is_booked = 0, updated_at = CURRENT_TIMESTAMP
	      WHERE id IN (` + placeholders + `) AND is_booked = 1`
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
