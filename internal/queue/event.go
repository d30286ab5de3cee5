// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPaidEvent is published after a payment has been validated and the
// booking transitioned to PAID. It carries enough detail for downstream
// consumers to log, email tickets, or feed analytics without querying the
// primary database.
type BookingPaidEvent struct {
	BookingID        uint64   `json:"booking_id"`
	HolderKey        string   `json:"holder"`
	ShowID           uint64   `json:"show_id"`
	MovieTitle       string   `json:"movie_title"`
	ScreenName       string   `json:"screen_name"`
	StartsAt         string   `json:"starts_at"`
	SeatLabels       []string `json:"seats"`
	TicketCodes      []string `json:"ticket_codes"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	TranID           string   `json:"tran_id"`
	ValID            string   `json:"val_id"`
	PaidAt           string   `json:"paid_at"`
}
