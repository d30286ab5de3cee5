package model

import "strings"

// HolderKind discriminates the two identities that may own a seat hold.
type HolderKind uint8

const (
	// HolderUser marks a hold owned by an authenticated user account.
	HolderUser HolderKind = iota + 1
	// HolderGuest marks a hold owned by an anonymous guest session.
	HolderGuest
)

// Holder is the identity that owns seat holds and bookings.  It is a tagged
// union of an authenticated user ID and an anonymous guest token.  The seat
// ledger never inspects the variant; it compares only the opaque key
// produced by Key().  A guest session can later be claimed by a logged-in
// user that still presents the original guest token, which is why MatchKeys
// may return more than one key.
//
// Fields:
//  kind  – which variant is populated.
//  key   – canonical equality key ("user:<id>" or "guest:<token>").
//  claim – optional guest key an authenticated holder may additionally claim.
type Holder struct {
	kind  HolderKind
	key   string
	claim string
}

// UserHolder builds a Holder for an authenticated user ID.
func UserHolder(userID string) Holder {
	return Holder{kind: HolderUser, key: "user:" + userID}
}

// GuestHolder builds a Holder for an anonymous guest token.
func GuestHolder(token string) Holder {
	return Holder{kind: HolderGuest, key: "guest:" + token}
}

// WithGuestClaim returns a copy of the holder that may additionally claim
// holds owned by the given guest token.  It is a no-op for guest holders
// and for empty tokens; a guest cannot claim another guest's session.
func (h Holder) WithGuestClaim(token string) Holder {
	if h.kind != HolderUser || strings.TrimSpace(token) == "" {
		return h
	}
	h.claim = "guest:" + token
	return h
}

// Kind reports which identity variant the holder carries.
func (h Holder) Kind() HolderKind { return h.kind }

// Key returns the canonical equality key persisted in seats.held_by.
func (h Holder) Key() string { return h.key }

// MatchKeys returns every held_by value this holder is entitled to act on:
// its own key, plus a claimed guest key when present.  Seat ownership checks
// succeed when the stored key equals any of these.
func (h Holder) MatchKeys() []string {
	if h.IsZero() {
		return nil
	}
	if h.claim != "" && h.claim != h.key {
		return []string{h.key, h.claim}
	}
	return []string{h.key}
}

// IsZero reports whether the holder carries no identity at all.
func (h Holder) IsZero() bool { return h.kind == 0 || h.key == "" }

// UserID returns the numeric user portion of a user holder key, or an empty
// string for guest holders.  Used when a booking row needs the user column.
func (h Holder) UserID() string {
	if h.kind != HolderUser {
		return ""
	}
	return strings.TrimPrefix(h.key, "user:")
}

// GuestToken returns the raw guest token of a guest holder, or an empty
// string for user holders.
func (h Holder) GuestToken() string {
	if h.kind != HolderGuest {
		return ""
	}
	return strings.TrimPrefix(h.key, "guest:")
}
