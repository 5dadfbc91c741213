package domain

import "time"

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents an account holder of the system.
// PasswordHash and Salt are base64 encoded and must never leave the backend.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Salt         string
	Role         Role
	DateCreated  time.Time
}

type SubscriptionPlan string

const (
	PlanFree SubscriptionPlan = "Free"
	PlanPaid SubscriptionPlan = "Paid"
)

// CustomerDetails extends a customer user with subscription and contact info.
type CustomerDetails struct {
	ID          int64
	UserID      int64
	Plan        SubscriptionPlan
	Preferences string
	Address     string
	Country     string
	PhoneNumber string
}

// AdminDetails extends an admin user with a permissions string.
type AdminDetails struct {
	ID          int64
	UserID      int64
	Permissions string
}
