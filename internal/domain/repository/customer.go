package repository

import (
	"context"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// CustomerRepository describes persistence operations for customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	FindOrCreate(ctx context.Context, customer model.NewCustomer) (*model.Customer, error)
	RefreshStats(ctx context.Context, id int64) error
}
