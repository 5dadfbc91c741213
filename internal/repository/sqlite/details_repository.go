package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

const createCustomerDetailsTable = `
CREATE TABLE IF NOT EXISTS customer_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	plan TEXT NOT NULL,
	preferences TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT ''
);
`

const createAdminDetailsTable = `
CREATE TABLE IF NOT EXISTS admin_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	permissions TEXT NOT NULL DEFAULT ''
);
`

type CustomerDetailsRepository struct {
	db *sql.DB
}

func NewCustomerDetailsRepository(db *sql.DB) *CustomerDetailsRepository {
	return &CustomerDetailsRepository{db: db}
}

var _ repository.CustomerDetailsRepository = (*CustomerDetailsRepository)(nil)

func (r *CustomerDetailsRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCustomerDetailsTable); err != nil {
		return fmt.Errorf("create customer_details table: %w", err)
	}
	return nil
}

func (r *CustomerDetailsRepository) Create(ctx context.Context, details *domain.CustomerDetails) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertCustomerDetails,
		details.UserID,
		string(details.Plan),
		details.Preferences,
		details.Address,
		details.Country,
		details.PhoneNumber,
	)
	if err != nil {
		return 0, fmt.Errorf("insert customer details: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customer details last insert id: %w", err)
	}
	details.ID = id
	return id, nil
}

const insertCustomerDetails = `
INSERT INTO customer_details (user_id, plan, preferences, address, country, phone_number)
VALUES (?, ?, ?, ?, ?, ?)`

func (r *CustomerDetailsRepository) GetByUserID(ctx context.Context, userID int64) (*domain.CustomerDetails, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, plan, preferences, address, country, phone_number
FROM customer_details
WHERE user_id = ?`,
		userID,
	)

	var (
		details domain.CustomerDetails
		plan    string
	)
	if err := row.Scan(
		&details.ID,
		&details.UserID,
		&plan,
		&details.Preferences,
		&details.Address,
		&details.Country,
		&details.PhoneNumber,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrDetailsNotFound
		}
		return nil, fmt.Errorf("scan customer details: %w", err)
	}
	details.Plan = domain.SubscriptionPlan(plan)
	return &details, nil
}

type AdminDetailsRepository struct {
	db *sql.DB
}

func NewAdminDetailsRepository(db *sql.DB) *AdminDetailsRepository {
	return &AdminDetailsRepository{db: db}
}

var _ repository.AdminDetailsRepository = (*AdminDetailsRepository)(nil)

func (r *AdminDetailsRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAdminDetailsTable); err != nil {
		return fmt.Errorf("create admin_details table: %w", err)
	}
	return nil
}

func (r *AdminDetailsRepository) Create(ctx context.Context, details *domain.AdminDetails) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO admin_details (user_id, permissions)
VALUES (?, ?)`,
		details.UserID,
		details.Permissions,
	)
	if err != nil {
		return 0, fmt.Errorf("insert admin details: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("admin details last insert id: %w", err)
	}
	details.ID = id
	return id, nil
}

func (r *AdminDetailsRepository) GetByUserID(ctx context.Context, userID int64) (*domain.AdminDetails, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, permissions
FROM admin_details
WHERE user_id = ?`,
		userID,
	)

	var details domain.AdminDetails
	if err := row.Scan(&details.ID, &details.UserID, &details.Permissions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrDetailsNotFound
		}
		return nil, fmt.Errorf("scan admin details: %w", err)
	}
	return &details, nil
}
