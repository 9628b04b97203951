// Package auth turns an Authorization header into a per-request
// Identity.
package auth

import (
	"context"

	"github.com/iliyamo/linkboard/internal/model"
)

// Identity is either a resolved customer or anonymous.  The zero value
// is anonymous.  It is a value type, so a request's identity cannot be
// changed by whoever it is handed to.
type Identity struct {
	customer *model.Customer
}

// Anonymous returns the identity of an unauthenticated request.
func Anonymous() Identity { return Identity{} }

// Authenticated returns an identity bound to c.
func Authenticated(c model.Customer) Identity { return Identity{customer: &c} }

// Customer returns the resolved customer, if any.
func (i Identity) Customer() (model.Customer, bool) {
	if i.customer == nil {
		return model.Customer{}, false
	}
	return *i.customer, true
}

// IsAnonymous reports whether no customer was resolved.
func (i Identity) IsAnonymous() bool { return i.customer == nil }

// CustomerID returns the customer id, or 0 for anonymous.
func (i Identity) CustomerID() uint64 {
	if i.customer == nil {
		return 0
	}
	return i.customer.ID
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, or anonymous.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
