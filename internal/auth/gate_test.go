package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
	"github.com/iliyamo/linkboard/internal/utils"
)

type mockCustomers struct {
	getByIDFunc func(ctx context.Context, id uint64) (model.Customer, error)
	calls       int
}

func (m *mockCustomers) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	m.calls++
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return model.Customer{}, repository.ErrNotFound
}

func knownCustomer(c model.Customer) *mockCustomers {
	return &mockCustomers{getByIDFunc: func(_ context.Context, id uint64) (model.Customer, error) {
		if id == c.ID {
			return c, nil
		}
		return model.Customer{}, repository.ErrNotFound
	}}
}

func TestGate_NoHeaderIsAnonymous(t *testing.T) {
	customers := &mockCustomers{}
	g := NewGate(utils.NewTokenService("secret"), customers)

	id, err := g.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, id.IsAnonymous())
	assert.Zero(t, customers.calls)
}

func TestGate_ValidToken(t *testing.T) {
	tokens := utils.NewTokenService("secret")
	alice := model.Customer{ID: 5, Name: "A", Email: "a@x.com"}
	g := NewGate(tokens, knownCustomer(alice))

	tok, err := tokens.Issue(alice.ID)
	require.NoError(t, err)

	id, err := g.Resolve(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	require.False(t, id.IsAnonymous())
	got, ok := id.Customer()
	require.True(t, ok)
	assert.Equal(t, alice, got)
	assert.Equal(t, uint64(5), id.CustomerID())
}

func TestGate_InvalidTokenIsHardFailure(t *testing.T) {
	customers := &mockCustomers{}
	g := NewGate(utils.NewTokenService("secret"), customers)

	forged, err := utils.NewTokenService("attacker").Issue(5)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"forged":        "Bearer " + forged,
		"garbage":       "Bearer abc.def.ghi",
		"missing token": "Bearer ",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
		"no scheme":     forged,
	} {
		id, err := g.Resolve(context.Background(), header)
		require.Error(t, err, name)
		assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err), name)
		assert.True(t, id.IsAnonymous(), name)
	}
	assert.Zero(t, customers.calls, "store must not be consulted for a bad token")
}

func TestGate_InvalidTokenKeepsCause(t *testing.T) {
	g := NewGate(utils.NewTokenService("secret"), &mockCustomers{})

	_, err := g.Resolve(context.Background(), "Bearer nope")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestGate_DeletedCustomerIsAnonymous(t *testing.T) {
	tokens := utils.NewTokenService("secret")
	g := NewGate(tokens, &mockCustomers{})

	tok, err := tokens.Issue(77)
	require.NoError(t, err)

	id, err := g.Resolve(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.True(t, id.IsAnonymous())
}

func TestGate_StoreFailureIsInternal(t *testing.T) {
	tokens := utils.NewTokenService("secret")
	g := NewGate(tokens, &mockCustomers{getByIDFunc: func(context.Context, uint64) (model.Customer, error) {
		return model.Customer{}, errors.New("connection refused")
	}})

	tok, err := tokens.Issue(1)
	require.NoError(t, err)

	_, err = g.Resolve(context.Background(), "Bearer "+tok)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestGate_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := utils.NewTokenService("secret")
	g := NewGate(tokens, knownCustomer(model.Customer{ID: 1}))

	tok, err := tokens.Issue(1)
	require.NoError(t, err)

	id, err := g.Resolve(context.Background(), "bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id.CustomerID())
}

func TestIdentity_Context(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsAnonymous())

	ctx := WithIdentity(context.Background(), Authenticated(model.Customer{ID: 3}))
	assert.Equal(t, uint64(3), FromContext(ctx).CustomerID())

	_, ok := Anonymous().Customer()
	assert.False(t, ok)
	assert.Zero(t, Anonymous().CustomerID())
}
