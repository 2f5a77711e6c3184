package postgres_test

import (
	"context"
	"strings"
	"testing"

	"github.com/garnizeh/jobly/internal/auth"
	"github.com/garnizeh/jobly/internal/repository/postgres"
	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUser(username, email string) models.NewUser {
	return models.NewUser{
		Username: username, Password: "secret123", FirstName: "Test", LastName: "User", Email: email,
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	u, err := r.Register(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.False(t, u.IsAdmin)

	got, err := r.Authenticate(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Equal(t, u, got)

	_, err = r.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = r.Authenticate(ctx, "nobody", "secret123")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRegister_StoresHash(t *testing.T) {
	r, d := setup(t)
	ctx := context.Background()

	_, err := r.Register(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	var stored string
	require.NoError(t, d.QueryRow(ctx, `SELECT password FROM users WHERE username = 'alice'`).Scan(&stored))
	require.NotEqual(t, "secret123", stored)
	_, err = bcrypt.Cost([]byte(stored))
	require.NoError(t, err)
}

func TestPasswordTooLong_RejectedBeforeQuery(t *testing.T) {
	// No connection: the password check must fail before any SQL runs.
	r := postgres.New(nil, auth.NewHasher(bcrypt.MinCost), nil)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := r.Register(ctx, models.NewUser{
		Username: "alice", Password: long, FirstName: "A", LastName: "L", Email: "alice@example.com",
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = r.UpdateUser(ctx, "alice", sqlbuild.Fields{{Name: "password", Value: long}})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRegister_Duplicates(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	_, err := r.Register(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	var ae *apperr.Error
	_, err = r.Register(ctx, newUser("alice", "other@example.com"))
	require.ErrorAs(t, err, &ae)
	require.Equal(t, apperr.KindConflict, ae.Kind)
	require.Equal(t, "username", ae.Field)

	_, err = r.Register(ctx, newUser("bob", "alice@example.com"))
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "email", ae.Field)
}

func TestUpdateUser(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	_, err := r.Register(ctx, newUser("alice", "alice@example.com"))
	require.NoError(t, err)

	u, err := r.UpdateUser(ctx, "alice", sqlbuild.Fields{
		{Name: "first_name", Value: "Alicia"},
		{Name: "password", Value: "newpass99"},
		{Name: "is_admin", Value: true},
		{Name: "_token", Value: "tok"},
	})
	require.NoError(t, err)
	require.Equal(t, "Alicia", u.FirstName)
	require.Equal(t, "User", u.LastName)
	require.False(t, u.IsAdmin, "is_admin must not be settable")

	_, err = r.Authenticate(ctx, "alice", "newpass99")
	require.NoError(t, err, "new password must be hashed and usable")

	renamed, err := r.UpdateUser(ctx, "alice", sqlbuild.Fields{{Name: "username", Value: "alicia"}})
	require.NoError(t, err)
	require.Equal(t, "alicia", renamed.Username)

	_, err = r.GetUser(ctx, "alice")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.UpdateUser(ctx, "nobody", sqlbuild.Fields{{Name: "first_name", Value: "x"}})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListAndDeleteUsers(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	for _, nu := range []models.NewUser{newUser("bob", "bob@example.com"), newUser("alice", "alice@example.com")} {
		_, err := r.Register(ctx, nu)
		require.NoError(t, err)
	}

	list, err := r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Username)
	require.Equal(t, "bob", list[1].Username)

	name, err := r.DeleteUser(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "bob", name)

	_, err = r.DeleteUser(ctx, "bob")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	list, err = r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
