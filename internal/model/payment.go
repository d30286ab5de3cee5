package model

import "time"

// Payment records one confirmed gateway transaction for a booking.  The
// validation ID is unique, which is what makes payment confirmation
// idempotent at the storage level: a duplicate success callback cannot
// insert a second row.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – booking this payment settles.
//  ValID       – gateway validation identifier (unique).
//  AmountCents – settled amount in cents.
//  Currency    – ISO currency code reported by the gateway.
//  CardType    – card/method tag reported by the gateway.
//  CardIssuer  – issuing bank, when reported.
//  TranDate    – gateway-side transaction timestamp (verbatim string).
//  CreatedAt   – creation timestamp.
type Payment struct {
	ID          uint64    // payments.id
	BookingID   uint64    // payments.booking_id
	ValID       string    // payments.val_id
	AmountCents uint32    // payments.amount_cents
	Currency    string    // payments.currency
	CardType    string    // payments.card_type
	CardIssuer  string    // payments.card_issuer
	TranDate    string    // payments.tran_date
	CreatedAt   time.Time // payments.created_at
}
