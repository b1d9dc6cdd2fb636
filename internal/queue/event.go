// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published after a booking transaction commits.
// It carries enough information for downstream consumers to notify or
// log without querying the primary database.
type BookingCreatedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	EventID          uint64   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	Venue            string   `json:"venue"`
	StartsAt         string   `json:"starts_at"`
	CustomerName     string   `json:"customer_name"`
	CustomerPhone    string   `json:"customer_phone"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	Currency         string   `json:"currency"`
	CreatedAt        string   `json:"created_at"`
}
