package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/domain"
	"account-service/internal/repository"
	"account-service/internal/repository/sqlite"
)

type testEnv struct {
	svc             UserService
	customerDetails repository.CustomerDetailsRepository
	adminDetails    repository.AdminDetailsRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	customers := sqlite.NewCustomerDetailsRepository(db)
	admins := sqlite.NewAdminDetailsRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, customers.Init(ctx))
	require.NoError(t, admins.Init(ctx))

	return testEnv{
		svc:             NewUserService(users, customers, admins, sqlite.NewSignupStore(db)),
		customerDetails: customers,
		adminDetails:    admins,
	}
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.False(t, user.DateCreated.IsZero())

	// credential material never leaves the service
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.Salt)

	// default customer details are created in the same unit of work
	details, err := env.customerDetails.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, details.Plan)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	_, err = env.svc.Signup(ctx, "Other Alice", "alice@x.com", "different-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "alice@x.com", "longenough1"},
		{"bad email", "Alice", "not-an-email", "longenough1"},
		{"short password", "Alice", "alice@x.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Signup(ctx, tc.userName, tc.email, tc.password)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	user, err := env.svc.Login(ctx, "alice@x.com", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	// wrong password and unknown email are the same error
	_, wrongPass := env.svc.Login(ctx, "alice@x.com", "wrong-password")
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	_, unknown := env.svc.Login(ctx, "nobody@x.com", "longenough1")
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	profile, err := env.svc.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Empty(t, profile.PasswordHash)

	// a deleted user's token subject no longer resolves
	require.NoError(t, env.svc.DeleteUser(ctx, created.ID))
	_, err = env.svc.GetProfile(ctx, created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPatchSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	name := "Alice Renamed"
	updated, err := env.svc.PatchSelf(ctx, created.ID, ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", updated.Name)
	assert.Equal(t, "alice@x.com", updated.Email)
	assert.Equal(t, domain.RoleCustomer, updated.Role)

	// login still works, the credential was left untouched
	_, err = env.svc.Login(ctx, "alice@x.com", "longenough1")
	assert.NoError(t, err)
}

func TestPatchSelfEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)
	bob, err := env.svc.Signup(ctx, "Bob", "bob@x.com", "longenough1")
	require.NoError(t, err)

	taken := "alice@x.com"
	_, err = env.svc.PatchSelf(ctx, bob.ID, ProfilePatch{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPatchUserChangesRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	role := domain.RoleAdmin
	updated, err := env.svc.PatchUser(ctx, created.ID, UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	bad := domain.Role("SuperUser")
	_, err = env.svc.PatchUser(ctx, created.ID, UserPatch{Role: &bad})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateUserWithRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.CreateUser(ctx, "Root", "root@x.com", "longenough1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	// admin creation does not add customer details
	_, err = env.customerDetails.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrDetailsNotFound)
}

func TestGetUserIncludesDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Signup(ctx, "Alice", "alice@x.com", "longenough1")
	require.NoError(t, err)

	account, err := env.svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, account.CustomerDetails)
	assert.Equal(t, domain.PlanFree, account.CustomerDetails.Plan)
	assert.Nil(t, account.AdminDetails)
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.EnsureAdmin(ctx, "Admin User", "admin@x.com", "admin-pass-1", "manage_users"))

	user, err := env.svc.Login(ctx, "admin@x.com", "admin-pass-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	details, err := env.adminDetails.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "manage_users", details.Permissions)

	// second call is a no-op
	require.NoError(t, env.svc.EnsureAdmin(ctx, "Admin User", "admin@x.com", "admin-pass-1", "manage_users"))
	users, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
