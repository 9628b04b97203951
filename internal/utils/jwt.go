package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/iliyamo/linkboard/internal/apperr"
)

// ErrInvalidToken is the cause attached to every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// sessionClaims is the payload of a session token: the customer id and
// the standard issued-at claim.  No exp claim is set, so tokens stay
// valid until the signing secret changes.
type sessionClaims struct {
	CustomerID uint64 `json:"customerId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens with a single
// process-wide secret.  It holds no mutable state and is safe for
// concurrent use.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue builds and signs a token for customerID.
func (s *TokenService) Issue(customerID uint64) (string, error) {
	claims := sessionClaims{
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now().UTC()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", apperr.E("utils.Issue", apperr.Internal, err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the embedded customer id.
// Any failure is reported with kind InvalidToken.
func (s *TokenService) Verify(raw string) (uint64, error) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC, including alg=none.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Strict decoding rejects non-zero padding bits, so no two
		// encodings of the same signature both verify.
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return 0, apperr.E("utils.Verify", apperr.InvalidToken, fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	if !tok.Valid || claims.CustomerID == 0 {
		return 0, apperr.E("utils.Verify", apperr.InvalidToken, ErrInvalidToken)
	}
	return claims.CustomerID, nil
}
