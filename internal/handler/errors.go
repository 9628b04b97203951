package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/service"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.InvalidToken, apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.DuplicateVote, apperr.Conflict:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Invalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": "..."}.  Internal failures are
// logged and reported without their cause; a duplicate vote also carries
// the link id.
func writeError(c echo.Context, err error) error {
	status := statusOf(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": apperr.Message(err)}
	var dup *service.DuplicateVoteError
	if errors.As(err, &dup) {
		body["link_id"] = dup.LinkID
	}
	return c.JSON(status, body)
}
