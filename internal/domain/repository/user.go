package repository

import (
	"context"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// UserRepository describes persistence operations for staff users.
type UserRepository interface {
	Create(ctx context.Context, login, passwordHash string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
