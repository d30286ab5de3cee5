package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHolderKey(t *testing.T) {
	h := UserHolder("42")
	assert.Equal(t, HolderUser, h.Kind())
	assert.Equal(t, "user:42", h.Key())
	assert.Equal(t, "42", h.UserID())
	assert.Equal(t, "", h.GuestToken())
	assert.False(t, h.IsZero())
}

func TestGuestHolderKey(t *testing.T) {
	h := GuestHolder("abc123")
	assert.Equal(t, HolderGuest, h.Kind())
	assert.Equal(t, "guest:abc123", h.Key())
	assert.Equal(t, "abc123", h.GuestToken())
	assert.Equal(t, "", h.UserID())
}

func TestZeroHolder(t *testing.T) {
	var h Holder
	assert.True(t, h.IsZero())
	assert.Empty(t, h.MatchKeys())
}

func TestWithGuestClaim(t *testing.T) {
	h := UserHolder("7").WithGuestClaim("tok")
	keys := h.MatchKeys()
	assert.Equal(t, []string{"user:7", "guest:tok"}, keys)
	// the primary key stays the user key
	assert.Equal(t, "user:7", h.Key())
}

func TestWithGuestClaimEmptyToken(t *testing.T) {
	h := UserHolder("7").WithGuestClaim("")
	assert.Equal(t, []string{"user:7"}, h.MatchKeys())
}

func TestWithGuestClaimOnGuestIsNoop(t *testing.T) {
	h := GuestHolder("a").WithGuestClaim("b")
	assert.Equal(t, []string{"guest:a"}, h.MatchKeys())
}
