package middleware

// identity.go holds helpers shared across middleware files for reading the
// identity that Authenticate stored on the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/linkboard/internal/auth"
)

const identityKey = "identity"

// IdentityOf returns the identity resolved for this request, or anonymous
// when Authenticate did not run.
func IdentityOf(c echo.Context) auth.Identity {
	if id, ok := c.Get(identityKey).(auth.Identity); ok {
		return id
	}
	return auth.FromContext(c.Request().Context())
}

// userID returns the customer id as a string, or "anon" for anonymous
// callers.  Used to build rate limit keys.
func userID(c echo.Context) string {
	id := IdentityOf(c)
	if id.IsAnonymous() {
		return "anon"
	}
	return strconv.FormatUint(id.CustomerID(), 10)
}
