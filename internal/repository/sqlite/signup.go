package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

// SignupStore writes a new user and its default customer details inside a
// single transaction so signup cannot leave a user without details behind.
type SignupStore struct {
	db *sql.DB
}

func NewSignupStore(db *sql.DB) *SignupStore {
	return &SignupStore{db: db}
}

var _ repository.SignupStore = (*SignupStore)(nil)

func (s *SignupStore) CreateCustomerAccount(ctx context.Context, user *domain.User, details *domain.CustomerDetails) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin signup tx: %w", err)
	}
	defer tx.Rollback()

	if user.DateCreated.IsZero() {
		user.DateCreated = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO users (name, email, password_hash, salt, role, date_created)
VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Salt,
		string(user.Role),
		user.DateCreated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	details.UserID = id

	if _, err := tx.ExecContext(ctx, insertCustomerDetails,
		details.UserID,
		string(details.Plan),
		details.Preferences,
		details.Address,
		details.Country,
		details.PhoneNumber,
	); err != nil {
		return 0, fmt.Errorf("insert customer details: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit signup tx: %w", err)
	}
	return id, nil
}
