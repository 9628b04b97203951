package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
)

// PasswordHasher is implemented by utils.PasswordHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer is implemented by utils.TokenService.
type TokenIssuer interface {
	Issue(customerID uint64) (string, error)
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token    string         `json:"token"`
	Customer model.Customer `json:"customer"`
}

var (
	errCredentialsRequired = errors.New("email/password required")
	errNameRequired        = errors.New("name required")
	errEmailExists         = errors.New("email already exists")
	errInvalidCredentials  = errors.New("invalid credentials")
	errLoginRequired       = errors.New("unauthenticated")
)

// AccountService signs customers up and logs them in.
type AccountService struct {
	customers CustomerStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	log       *slog.Logger
}

func NewAccountService(customers CustomerStore, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger) *AccountService {
	if log == nil {
		log = slog.Default()
	}
	return &AccountService{customers: customers, hasher: hasher, tokens: tokens, log: log}
}

// Signup creates a customer and returns a session token for it.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (AuthPayload, error) {
	const op = "service.Signup"

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthPayload{}, apperr.E(op, apperr.Invalid, errCredentialsRequired)
	}
	if name == "" {
		return AuthPayload{}, apperr.E(op, apperr.Invalid, errNameRequired)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes.
		return AuthPayload{}, apperr.E(op, apperr.Invalid, err)
	}
	c, err := s.customers.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthPayload{}, apperr.E(op, apperr.Conflict, errEmailExists)
		}
		return AuthPayload{}, apperr.E(op, apperr.Internal, err)
	}
	token, err := s.tokens.Issue(c.ID)
	if err != nil {
		return AuthPayload{}, apperr.E(op, apperr.Internal, err)
	}
	s.log.Info("customer signed up", slog.Uint64("customer_id", c.ID))
	return AuthPayload{Token: token, Customer: c}, nil
}

// Login checks credentials and returns a fresh session token.  Unknown
// email and wrong password produce the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (AuthPayload, error) {
	const op = "service.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthPayload{}, apperr.E(op, apperr.Invalid, errCredentialsRequired)
	}
	c, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthPayload{}, apperr.E(op, apperr.Unauthenticated, errInvalidCredentials)
		}
		return AuthPayload{}, apperr.E(op, apperr.Internal, err)
	}
	if !s.hasher.Verify(password, c.PasswordHash) {
		return AuthPayload{}, apperr.E(op, apperr.Unauthenticated, errInvalidCredentials)
	}
	token, err := s.tokens.Issue(c.ID)
	if err != nil {
		return AuthPayload{}, apperr.E(op, apperr.Internal, err)
	}
	return AuthPayload{Token: token, Customer: c}, nil
}

// Me returns the customer behind id.
func (s *AccountService) Me(id auth.Identity) (model.Customer, error) {
	c, ok := id.Customer()
	if !ok {
		return model.Customer{}, apperr.E("service.Me", apperr.Unauthenticated, errLoginRequired)
	}
	return c, nil
}
