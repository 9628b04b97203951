package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'uq_votes_link_customer'"}
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert vote: %w", dup)))
	assert.False(t, isDuplicateKey(fk))
	assert.False(t, isDuplicateKey(errors.New("1062")))
	assert.False(t, isDuplicateKey(nil))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows), ErrNotFound)
	assert.NoError(t, notFound(nil))

	other := errors.New("conn reset")
	assert.Equal(t, other, notFound(other))
}

func TestFeedOrderBy(t *testing.T) {
	assert.Equal(t, "id ASC", feedOrderBy(nil))
	assert.Equal(t, "created_at DESC, id ASC", feedOrderBy([]FeedOrder{{Field: "createdAt", Desc: true}}))
	assert.Equal(t, "url ASC, description DESC, id ASC", feedOrderBy([]FeedOrder{
		{Field: "url"},
		{Field: "password_hash; DROP TABLE links"},
		{Field: "DESCRIPTION", Desc: true},
	}))
}

func TestFeedWhere(t *testing.T) {
	cond, args := feedWhere(FeedQuery{})
	assert.Equal(t, "1=1", cond)
	assert.Empty(t, args)

	cond, args = feedWhere(FeedQuery{Filter: "GoLang"})
	assert.Equal(t, "(LOWER(description) LIKE ? ESCAPE '!' OR LOWER(url) LIKE ? ESCAPE '!')", cond)
	assert.Equal(t, []any{"%golang%", "%golang%"}, args)
}

func TestFeedWhere_WildcardsMatchLiterally(t *testing.T) {
	cases := map[string]string{
		"%":         "%!%%",
		"_":         "%!_%",
		"100%_off!": "%100!%!_off!!%",
		`a\b`:      `%a\b%`,
	}
	for filter, want := range cases {
		_, args := feedWhere(FeedQuery{Filter: filter})
		assert.Equal(t, []any{want, want}, args, filter)
	}
}
