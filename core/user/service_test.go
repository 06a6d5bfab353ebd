package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
	emailsvc "github.com/minhaescola/backend/services/email"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
	testutil "github.com/minhaescola/backend/tests"
)

func setup(t *testing.T) (user.Service, user.Repository) {
	t.Helper()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock()), repo
}

func TestService_AssignRole(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)

	usr := testutil.CreateUser(t, repo, "Awe", "awe", "awe@escola.cd", "mdr", nil, true)

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, usr.ID, "lol")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("admin is not assignable", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, usr.ID, user.RoleAdmin)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, "lol", user.RoleStudent)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("replaces the role set", func(t *testing.T) {
		got, err := svc.AssignRole(ctx, usr.ID, user.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleStudent}, got.Roles)

		got, err = svc.AssignRole(ctx, usr.ID, user.RoleTeacher)
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleTeacher}, got.Roles)
	})
}

func TestService_RemoveFromGroup(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)

	usr := testutil.CreateUser(t, repo, "Awe", "awe", "awe@escola.cd", "mdr", []string{user.RoleStudent}, true)

	t.Run("unknown group", func(t *testing.T) {
		_, err := svc.RemoveFromGroup(ctx, usr.ID, "lol")
		assert.Equal(t, user.ErrGroupNotFound, err)
	})

	t.Run("not a member", func(t *testing.T) {
		_, err := svc.RemoveFromGroup(ctx, usr.ID, user.RoleTeacher)
		assert.Equal(t, user.ErrNotMember, err)
	})

	t.Run("removes only the named group", func(t *testing.T) {
		_, err := svc.AssignRole(ctx, usr.ID, user.RoleStudent)
		require.NoError(t, err)

		got, err := svc.RemoveFromGroup(ctx, usr.ID, user.RoleStudent)
		require.NoError(t, err)
		assert.Empty(t, got.Roles)
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	usr, err := svc.Create(ctx, user.NewUser{
		Name:     "Awe Mdr",
		Username: "awemdr",
		Email:    "awe@escola.cd",
		Password: "LolMdr057",
		Roles:    []string{user.RoleStudent},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	require.NotNil(t, usr.IsActive)
	assert.True(t, *usr.IsActive)
	assert.NoError(t, usr.CheckPassword("LolMdr057"))

	t.Run("uniqueness is enforced", func(t *testing.T) {
		err := svc.CheckUniqueness("awemdr", "other@escola.cd")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)

		assert.NoError(t, svc.CheckUniqueness("other", "other@escola.cd"))
		assert.NoError(t, svc.CheckUniqueness("awemdr", "awe@escola.cd", usr))
	})

	t.Run("lookups", func(t *testing.T) {
		byUname, err := svc.GetByUsername(ctx, "awemdr")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, byUname.ID)

		byEmail, err := svc.GetByEmail(ctx, "awe@escola.cd")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, byEmail.ID)

		byEither, err := svc.GetByUsernameOrEmail(ctx, "awe@escola.cd")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, byEither.ID)

		_, err = svc.GetByUsernameOrEmail(ctx, "lol")
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)

	usr := testutil.CreateUser(t, repo, "Awe", "awe", "awe@escola.cd", "mdr", nil, true)

	t.Run("unknown email", func(t *testing.T) {
		err := svc.RequestPasswordReset(ctx, "lol@escola.cd")
		assert.Equal(t, user.ErrNotFound, err)
	})

	require.NoError(t, svc.RequestPasswordReset(ctx, usr.Email))

	t.Run("garbage uid", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{
			Token:           "lol",
			UID:             "%%%",
			Password:        "NewLolMdr057",
			PasswordConfirm: "NewLolMdr057",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("bad token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{
			Token:           "lol-mdr",
			UID:             user.EncodeUID(usr),
			Password:        "NewLolMdr057",
			PasswordConfirm: "NewLolMdr057",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}
