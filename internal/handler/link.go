package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/middleware"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
	"github.com/iliyamo/linkboard/internal/service"
)

// Posting is implemented by *service.PostingService.
type Posting interface {
	CreateLink(ctx context.Context, id auth.Identity, url, description string) (model.Link, error)
	Link(ctx context.Context, id uint64) (model.Link, error)
	Feed(ctx context.Context, q repository.FeedQuery) (service.Feed, error)
}

// Voting is implemented by *service.VotingService.
type Voting interface {
	CastVote(ctx context.Context, id auth.Identity, linkID uint64) (model.Vote, error)
	VotesForLink(ctx context.Context, linkID uint64) ([]model.Vote, error)
}

// LinkHandler serves links, the feed and votes.
type LinkHandler struct {
	Posting Posting
	Voting  Voting
}

func NewLinkHandler(p Posting, v Voting) *LinkHandler {
	if p == nil || v == nil {
		panic("nil service passed to NewLinkHandler")
	}
	return &LinkHandler{Posting: p, Voting: v}
}

type postLinkReq struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var errBadLinkID = errors.New("invalid link id")

// linkID parses the :id path parameter.
func linkID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.E("handler.linkID", apperr.Invalid, errBadLinkID)
	}
	return id, nil
}

// Post creates a link owned by the caller.
func (h *LinkHandler) Post(c echo.Context) error {
	var req postLinkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	link, err := h.Posting.CreateLink(ctx, middleware.IdentityOf(c), req.URL, req.Description)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, link)
}

// Feed lists links.  Query parameters:
//   filter  – substring of description or url
//   skip    – rows to skip
//   take    – page size (default 20, max 100)
//   orderBy – comma separated field:dir pairs, e.g. "createdAt:desc,url:asc"
func (h *LinkHandler) Feed(c echo.Context) error {
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	take, _ := strconv.Atoi(c.QueryParam("take"))
	q := repository.FeedQuery{
		Filter:  strings.TrimSpace(c.QueryParam("filter")),
		Skip:    skip,
		Take:    take,
		OrderBy: parseOrderBy(c.QueryParam("orderBy")),
	}

	feed, err := h.Posting.Feed(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, feed)
}

// parseOrderBy reads "field[:asc|desc]" terms; unknown fields are dropped
// later by the repository.
func parseOrderBy(raw string) []repository.FeedOrder {
	var out []repository.FeedOrder
	for _, term := range strings.Split(raw, ",") {
		field, dir, _ := strings.Cut(strings.TrimSpace(term), ":")
		if field == "" {
			continue
		}
		out = append(out, repository.FeedOrder{
			Field: field,
			Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
		})
	}
	return out
}

// Get returns a single link.
func (h *LinkHandler) Get(c echo.Context) error {
	id, err := linkID(c)
	if err != nil {
		return writeError(c, err)
	}
	link, err := h.Posting.Link(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, link)
}

// Votes lists the votes cast for a link.
func (h *LinkHandler) Votes(c echo.Context) error {
	id, err := linkID(c)
	if err != nil {
		return writeError(c, err)
	}
	votes, err := h.Voting.VotesForLink(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if votes == nil {
		votes = []model.Vote{}
	}
	return c.JSON(http.StatusOK, votes)
}

// Vote casts the caller's vote for a link.
func (h *LinkHandler) Vote(c echo.Context) error {
	id, err := linkID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	vote, err := h.Voting.CastVote(ctx, middleware.IdentityOf(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, vote)
}
