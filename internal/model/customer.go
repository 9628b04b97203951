package model

import "time"

// Customer represents an account record as stored in the `customers`
// table.  The password is only ever held as a bcrypt hash and is never
// serialized.
//
// Fields:
//  ID           – primary key identifier of the customer.
//  Name         – display name.
//  Email        – unique, normalized (lower-case) email address.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
type Customer struct {
	ID           uint64    `json:"id"`        // customers.id
	Name         string    `json:"name"`      // customers.name
	Email        string    `json:"email"`     // customers.email
	PasswordHash string    `json:"-"`         // customers.password_hash
	CreatedAt    time.Time `json:"createdAt"` // customers.created_at
}
