package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/linkboard/internal/model"
)

// FeedQuery defines filters, ordering & pagination for the link feed.
type FeedQuery struct {
	Filter  string // substring matched against description or url
	Skip    int
	Take    int
	OrderBy []FeedOrder
}

// FeedOrder is a single ORDER BY term.  Field is one of "description",
// "url" or "createdAt"; unknown fields are ignored.
type FeedOrder struct {
	Field string
	Desc  bool
}

var feedOrderColumns = map[string]string{
	"description": "description",
	"url":         "url",
	"createdat":   "created_at",
}

// likeEscaper makes a filter match literally inside LIKE ... ESCAPE '!'.
// '!' is used instead of a backslash so the clause does not depend on
// the NO_BACKSLASH_ESCAPES sql_mode.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func feedWhere(q FeedQuery) (string, []any) {
	if q.Filter == "" {
		return "1=1", nil
	}
	like := "%" + likeEscaper.Replace(strings.ToLower(q.Filter)) + "%"
	return "(LOWER(description) LIKE ? ESCAPE '!' OR LOWER(url) LIKE ? ESCAPE '!')", []any{like, like}
}

func feedOrderBy(terms []FeedOrder) string {
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		col, ok := feedOrderColumns[strings.ToLower(t.Field)]
		if !ok {
			continue
		}
		dir := "ASC"
		if t.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	// id breaks ties so pages are stable.
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

// Count returns how many links match the query filter.
func (r *LinkRepo) Count(ctx context.Context, q FeedQuery) (int64, error) {
	cond, args := feedWhere(q)
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE `+cond, args...).Scan(&total)
	return total, err
}

// List returns one page of links matching the query.
func (r *LinkRepo) List(ctx context.Context, q FeedQuery) ([]model.Link, error) {
	cond, args := feedWhere(q)
	dataSQL := `SELECT ` + linkColumns + `
		FROM links
		WHERE ` + cond + `
		ORDER BY ` + feedOrderBy(q.OrderBy) + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), q.Take, q.Skip)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Link, 0, q.Take)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
