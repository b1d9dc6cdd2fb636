package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"
)

// SeatHoldRecord is the persistence model for a seat hold.  Buyers are
// anonymous, so holds are correlated by an opaque token instead of a user
// id: one token covers every seat of a single selection.
type SeatHoldRecord struct {
	ID        uint64    // primary key of the seat_holds row
	EventID   uint64    // event the held seat belongs to
	SeatID    uint64    // seat being held
	HoldToken string    // opaque token returned to the client for correlation
	ExpiresAt time.Time // expiration timestamp
	CreatedAt time.Time // creation timestamp
}

// SeatHoldRepo provides data access to the seat_holds table.  All methods
// compare expirations in UTC; callers must keep timestamps in UTC.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// ExpireHoldsTx removes all expired seat holds for an event.  A hold is
// expired when its expires_at is at or before the current UTC time.  The
// caller supplies the transaction and commits or rolls back.  Expiry is
// run lazily at the start of every hold or booking transaction rather
// than by a background sweeper.
func (r *SeatHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE event_id = ? AND expires_at <= UTC_TIMESTAMP()`,
		eventID,
	)
	return err
}

// randomToken generates a random hexadecimal string of n bytes (2n hex
// characters) using crypto/rand.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewHoldToken returns a fresh 64-character hold token.
func NewHoldToken() (string, error) { return randomToken(32) }

// CreateMultipleTx inserts multiple seat_holds within the provided
// transaction.  Each record must carry EventID, SeatID, HoldToken and
// ExpiresAt; created_at is set by the database.  Passing an empty slice
// has no effect.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []SeatHoldRecord) error {
	if len(holds) == 0 {
		return nil
	}
	query := `INSERT INTO seat_holds (event_id, seat_id, hold_token, expires_at) VALUES `
	args := make([]interface{}, 0, len(holds)*4)
	for i, h := range holds {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, h.EventID, h.SeatID, h.HoldToken, h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteByTokenTx removes all holds carrying the given token for an event
// and returns the seat IDs that were released.  The caller commits or
// rolls back the transaction.
func (r *SeatHoldRepo) DeleteByTokenTx(ctx context.Context, tx *sql.Tx, eventID uint64, token string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM seat_holds WHERE event_id = ? AND hold_token = ?`,
		eventID, token,
	)
	if err != nil {
		return nil, err
	}
	var seatIDs []uint64
	for rows.Next() {
		var sid uint64
		if scanErr := rows.Scan(&sid); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		seatIDs = append(seatIDs, sid)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return []uint64{}, nil
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE event_id = ? AND hold_token = ?`,
		eventID, token,
	); err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// GenerateHoldRecords builds hold records for one selection, all sharing
// the given token and expiration.
func GenerateHoldRecords(eventID uint64, seatIDs []uint64, token string, expiresAt time.Time) []SeatHoldRecord {
	holds := make([]SeatHoldRecord, 0, len(seatIDs))
	for _, sid := range seatIDs {
		holds = append(holds, SeatHoldRecord{
			EventID:   eventID,
			SeatID:    sid,
			HoldToken: token,
			ExpiresAt: expiresAt,
		})
	}
	return holds
}
