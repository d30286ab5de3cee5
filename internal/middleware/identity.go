package middleware

// identity.go builds the holder identity for booking-flow endpoints.  The
// seat ledger accepts both authenticated users and anonymous guests, so
// unlike JWTAuth this middleware never rejects a request for lacking a
// token: a valid Bearer token yields a user holder, and the X-Guest-Token
// header yields a guest holder.  An authenticated request that also sends
// the guest header gets the guest key attached as a claimable match key,
// which is how a guest session is adopted after login.  Requests carrying
// neither identity are turned away, since every hold needs an owner.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// context key under which the Holder is stored.
const holderContextKey = "holder"

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidToken  = errors.New("invalid token")
	errMissingHolder = errors.New("no holder identity in context")
)

// HolderIdentity returns a middleware that resolves the request's Holder
// and stores it in the context.  The secret verifies optional Bearer
// tokens; a malformed token is rejected rather than downgraded to guest,
// so a client with an expired session does not silently lose its user
// identity.
func HolderIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			guestToken := strings.TrimSpace(c.Request().Header.Get("X-Guest-Token"))
			var holder model.Holder
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				claims, err := parseBearer(c, secret)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
				}
				holder = model.UserHolder(claimString(claims["sub"])).WithGuestClaim(guestToken)
				c.Set("user_id", claims["sub"])
				c.Set("role", claims["role"])
			} else if guestToken != "" {
				holder = model.GuestHolder(guestToken)
			} else {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication or guest token required"})
			}
			c.Set(holderContextKey, holder)
			return next(c)
		}
	}
}

// CurrentHolder retrieves the Holder stored by HolderIdentity.
func CurrentHolder(c echo.Context) (model.Holder, error) {
	v := c.Get(holderContextKey)
	h, ok := v.(model.Holder)
	if !ok || h.IsZero() {
		return model.Holder{}, errMissingHolder
	}
	return h, nil
}

// claimString renders a JWT claim value as a string.  Numeric subjects are
// formatted without a decimal point.
func claimString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return fmt.Sprint(v)
}
