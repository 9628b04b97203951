package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/linkboard/internal/model"
)

type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

// Create inserts a customer and returns the stored record.  The password
// must already be hashed.  A reused email yields ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, name, email, passwordHash string) (model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers (name, email, password_hash) VALUES (?,?,?)",
		name, email, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Customer{}, ErrDuplicate
		}
		return model.Customer{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Customer{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a customer by normalized email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,created_at FROM customers WHERE email=? LIMIT 1",
		email).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.CreatedAt)
	return c, notFound(err)
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,created_at FROM customers WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.CreatedAt)
	return c, notFound(err)
}
