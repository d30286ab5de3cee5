package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

const testSecret = "test-secret"

// invoke runs the HolderIdentity middleware against a request and returns
// the holder captured by the inner handler, if it ran.
func invoke(t *testing.T, req *http.Request) (*model.Holder, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *model.Holder
	h := HolderIdentity(testSecret)(func(c echo.Context) error {
		holder, err := CurrentHolder(c)
		require.NoError(t, err)
		captured = &holder
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return captured, rec
}

func TestHolderIdentityGuest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Guest-Token", "tok-1")

	holder, rec := invoke(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, holder)
	assert.Equal(t, "guest:tok-1", holder.Key())
}

func TestHolderIdentityUser(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 42, model.RoleCustomer, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)

	holder, rec := invoke(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, holder)
	assert.Equal(t, "user:42", holder.Key())
}

func TestHolderIdentityUserClaimsGuestSession(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 42, model.RoleCustomer, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	req.Header.Set("X-Guest-Token", "tok-1")

	holder, _ := invoke(t, req)
	require.NotNil(t, holder)
	assert.Equal(t, "user:42", holder.Key())
	assert.Equal(t, []string{"user:42", "guest:tok-1"}, holder.MatchKeys())
}

func TestHolderIdentityRejectsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	holder, rec := invoke(t, req)
	assert.Nil(t, holder)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHolderIdentityRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set("X-Guest-Token", "tok-1")

	holder, rec := invoke(t, req)
	assert.Nil(t, holder)
	// a broken bearer token is rejected, not downgraded to guest
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
