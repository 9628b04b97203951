package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http" // HTTP status codes for responses

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
)

// IdentityResolver turns an Authorization header into an identity.  It is
// satisfied by *auth.Gate.
type IdentityResolver interface {
	Resolve(ctx context.Context, header string) (auth.Identity, error)
}

// Authenticate returns an Echo middleware that resolves the caller's
// identity exactly once, before any handler runs.  The identity is stored
// in the request context (auth.FromContext) and under the "identity" key
// of the Echo context.  Requests without an Authorization header continue
// as anonymous; a header that is present but malformed, or carries a token
// that fails verification, is rejected with 401.
func Authenticate(gate IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := gate.Resolve(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if apperr.Is(err, apperr.Unauthenticated) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				c.Logger().Errorf("authenticate: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identity lookup failed"})
			}
			// Bind the identity to the request so services see the same
			// value handlers do.
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
			c.Set(identityKey, id)
			return next(c)
		}
	}
}
