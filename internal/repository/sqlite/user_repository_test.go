package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewCustomerDetailsRepository(db).Init(ctx))
	require.NoError(t, NewAdminDetailsRepository(db).Init(ctx))
	return db
}

func testUser(email string) *domain.User {
	return &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "aGFzaA==",
		Salt:         "c2FsdA==",
		Role:         domain.RoleCustomer,
		DateCreated:  time.Now().UTC(),
	}
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, testUser("alice@x.com"))
	require.NoError(t, err)
	require.Positive(t, id)

	byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, domain.RoleCustomer, byEmail.Role)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser("alice@x.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testUser("alice@x.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepositoryUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testUser("alice@x.com")
	_, err := repo.Create(ctx, user)
	require.NoError(t, err)

	user.Name = "Alice Renamed"
	user.Role = domain.RoleAdmin
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", got.Name)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	missing := testUser("ghost@x.com")
	missing.ID = 9999
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrUserNotFound)
}

func TestUserRepositoryDeleteCascadesDetails(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	details := NewCustomerDetailsRepository(db)
	ctx := context.Background()

	user := testUser("alice@x.com")
	id, err := users.Create(ctx, user)
	require.NoError(t, err)

	_, err = details.Create(ctx, &domain.CustomerDetails{
		UserID: id,
		Plan:   domain.PlanFree,
	})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, id))

	_, err = users.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = details.GetByUserID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrDetailsNotFound)

	assert.ErrorIs(t, users.Delete(ctx, id), repository.ErrUserNotFound)
}

func TestSignupStoreAtomicCreate(t *testing.T) {
	db := testDB(t)
	store := NewSignupStore(db)
	users := NewUserRepository(db)
	details := NewCustomerDetailsRepository(db)
	ctx := context.Background()

	user := testUser("alice@x.com")
	id, err := store.CreateCustomerAccount(ctx, user, &domain.CustomerDetails{Plan: domain.PlanFree})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := details.GetByUserID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, got.Plan)

	// a duplicate signup leaves neither row behind
	_, err = store.CreateCustomerAccount(ctx, testUser("alice@x.com"), &domain.CustomerDetails{Plan: domain.PlanFree})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepositoryList(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testUser("b@x.com"))
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
}
