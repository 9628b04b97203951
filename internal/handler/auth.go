package handler

import (
	"context"  // provides context with cancellation for DB calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/middleware"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/service"
)

// Accounts is implemented by *service.AccountService.
type Accounts interface {
	Signup(ctx context.Context, name, email, password string) (service.AuthPayload, error)
	Login(ctx context.Context, email, password string) (service.AuthPayload, error)
	Me(id auth.Identity) (model.Customer, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Accounts Accounts
}

func NewAuthHandler(a Accounts) *AuthHandler {
	return &AuthHandler{Accounts: a}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup: create a customer and return a session token immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Accounts.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Me returns the customer bound to the request.
func (h *AuthHandler) Me(c echo.Context) error {
	cust, err := h.Accounts.Me(middleware.IdentityOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cust)
}
