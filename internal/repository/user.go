package repository

import (
	"context"
	"errors"

	"account-service/internal/domain"
)

var (
	// ErrDuplicateEmail reports a violation of the unique email constraint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned when no user row matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDetailsNotFound is returned when a user has no details row.
	ErrDetailsNotFound = errors.New("details not found")
)

// UserRepository defines persistence operations for User entities.
// The backing store enforces uniqueness of User.Email.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// CustomerDetailsRepository persists the optional customer profile extension.
type CustomerDetailsRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, details *domain.CustomerDetails) (int64, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.CustomerDetails, error)
}

// AdminDetailsRepository persists the optional admin profile extension.
type AdminDetailsRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, details *domain.AdminDetails) (int64, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.AdminDetails, error)
}

// SignupStore creates a user together with its default customer details as
// one atomic unit, so a failed second write cannot leave a half-registered
// account behind.
type SignupStore interface {
	CreateCustomerAccount(ctx context.Context, user *domain.User, details *domain.CustomerDetails) (int64, error)
}
