// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL error details.
package repository

import "errors"

// ErrSeatConflict is returned when one or more seats in a batch are booked
// or actively held by a different holder. Handlers should translate this
// into an HTTP 409 response; callers may retry with a different selection
// but must not blindly retry the same one.
var ErrSeatConflict = errors.New("seat conflict")

// ErrHoldExpired is returned when a confirm operation finds that the
// holder's hold on one or more seats has lapsed or was taken over.
var ErrHoldExpired = errors.New("hold expired")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by a different identity. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicatePayment is returned when a payment with the same validation
// ID was already recorded. Confirmation flows treat it as an idempotent
// success rather than a failure.
var ErrDuplicatePayment = errors.New("duplicate payment")

// Not-found sentinels per entity. Handlers translate these into 404.
var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrScreenNotFound  = errors.New("screen not found")
	ErrShowNotFound    = errors.New("show not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")
)
