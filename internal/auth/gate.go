package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
)

// TokenVerifier checks a session token and returns its customer id.
type TokenVerifier interface {
	Verify(token string) (uint64, error)
}

// CustomerFinder loads customers; it returns repository.ErrNotFound for
// unknown ids.
type CustomerFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Customer, error)
}

var errMalformedHeader = errors.New("authorization header must be \"Bearer <token>\"")

// Gate resolves request identities.
type Gate struct {
	tokens    TokenVerifier
	customers CustomerFinder
}

func NewGate(tokens TokenVerifier, customers CustomerFinder) *Gate {
	return &Gate{tokens: tokens, customers: customers}
}

// Resolve maps an Authorization header value to an Identity:
//
//   - empty header: anonymous
//   - malformed header or a token that fails verification: Unauthenticated
//   - valid token for a customer that no longer exists: anonymous
func (g *Gate) Resolve(ctx context.Context, header string) (Identity, error) {
	const op = "auth.Resolve"

	header = strings.TrimSpace(header)
	if header == "" {
		return Anonymous(), nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return Anonymous(), apperr.E(op, apperr.Unauthenticated, errMalformedHeader)
	}

	customerID, err := g.tokens.Verify(token)
	if err != nil {
		return Anonymous(), apperr.E(op, apperr.Unauthenticated, err)
	}

	c, err := g.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), apperr.E(op, apperr.Internal, err)
	}
	return Authenticated(c), nil
}
