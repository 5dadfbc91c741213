package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"account-service/internal/auth"
	"account-service/internal/domain"
	"account-service/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown email, missing credential fields
	// and wrong password alike, so callers cannot probe which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up or updating to an email that
	// already belongs to another user.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUserNotFound indicates the referenced user row does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports a field-level problem with the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProfilePatch is the partial update a customer may apply to their own
// profile. Credential, role and creation-date fields are deliberately not
// representable here, so attempts to patch them are dropped on the floor.
type ProfilePatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UserPatch is the partial update an administrator may apply to any user.
type UserPatch struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email"`
	Role  *domain.Role `json:"role"`
}

// Account bundles a user with its optional profile extensions.
type Account struct {
	User            domain.User
	CustomerDetails *domain.CustomerDetails
	AdminDetails    *domain.AdminDetails
}

// UserService describes the account lifecycle operations.
type UserService interface {
	Signup(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetProfile(ctx context.Context, id int64) (*domain.User, error)
	PatchSelf(ctx context.Context, id int64, patch ProfilePatch) (*domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*Account, error)
	CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	PatchUser(ctx context.Context, id int64, patch UserPatch) (*domain.User, error)

	EnsureAdmin(ctx context.Context, name, email, password, permissions string) error
}

type userService struct {
	users           repository.UserRepository
	customerDetails repository.CustomerDetailsRepository
	adminDetails    repository.AdminDetailsRepository
	signup          repository.SignupStore
}

func NewUserService(
	users repository.UserRepository,
	customerDetails repository.CustomerDetailsRepository,
	adminDetails repository.AdminDetailsRepository,
	signup repository.SignupStore,
) UserService {
	return &userService{
		users:           users,
		customerDetails: customerDetails,
		adminDetails:    adminDetails,
		signup:          signup,
	}
}

func (s *userService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		Role:         domain.RoleCustomer,
		DateCreated:  time.Now().UTC(),
	}
	details := defaultCustomerDetails()

	if _, err := s.signup.CreateCustomerAccount(ctx, user, details); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" || user.Salt == "" {
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash, user.Salt) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetProfile(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, id)
}

func (s *userService) PatchSelf(ctx context.Context, id int64, patch ProfilePatch) (*domain.User, error) {
	user, err := s.getUserRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(user, patch.Name, patch.Email, nil); err != nil {
		return nil, err
	}

	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = *sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*Account, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	account := &Account{User: *user}

	if details, err := s.customerDetails.GetByUserID(ctx, id); err == nil {
		account.CustomerDetails = details
	} else if !errors.Is(err, repository.ErrDetailsNotFound) {
		return nil, err
	}

	if details, err := s.adminDetails.GetByUserID(ctx, id); err == nil {
		account.AdminDetails = details
	} else if !errors.Is(err, repository.ErrDetailsNotFound) {
		return nil, err
	}

	return account, nil
}

func (s *userService) CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Message: "must be Customer or Admin"}
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		Role:         role,
		DateCreated:  time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) PatchUser(ctx context.Context, id int64, patch UserPatch) (*domain.User, error) {
	user, err := s.getUserRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(user, patch.Name, patch.Email, patch.Role); err != nil {
		return nil, err
	}

	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// EnsureAdmin creates the administrator account on first startup. It is a
// no-op when a user with the email already exists.
func (s *userService) EnsureAdmin(ctx context.Context, name, email, password, permissions string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	user, err := s.CreateUser(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	if _, err := s.adminDetails.Create(ctx, &domain.AdminDetails{
		UserID:      user.ID,
		Permissions: permissions,
	}); err != nil {
		return fmt.Errorf("create admin details: %w", err)
	}
	return nil
}

func (s *userService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.getUserRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) getUserRaw(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) update(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrUserNotFound
		default:
			return err
		}
	}
	return nil
}

// applyPatch copies the provided fields onto the user after validating them.
// A nil role pointer means the role stays untouched.
func applyPatch(user *domain.User, name, email *string, role *domain.Role) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validateName(trimmed); err != nil {
			return err
		}
		user.Name = trimmed
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if err := validateEmail(trimmed); err != nil {
			return err
		}
		user.Email = trimmed
	}
	if role != nil {
		if !role.Valid() {
			return &ValidationError{Field: "role", Message: "must be Customer or Admin"}
		}
		user.Role = *role
	}
	return nil
}

func validateSignup(name, email, password string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(name) > 100 {
		return &ValidationError{Field: "name", Message: "cannot exceed 100 characters"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

func defaultCustomerDetails() *domain.CustomerDetails {
	return &domain.CustomerDetails{
		Plan:        domain.PlanFree,
		Preferences: "Default Preferences",
		Address:     "Default Address",
		Country:     "Default Country",
		PhoneNumber: "000-000-0000",
	}
}

// sanitizeUser strips credential material before a user leaves the service.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		DateCreated: user.DateCreated,
	}
}
