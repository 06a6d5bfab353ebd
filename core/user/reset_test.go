package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRepo stubs the two Repository methods ResetPassword touches.
type resetRepo struct {
	Repository
	usr User
}

func (r *resetRepo) GetUserByID(ctx context.Context, id string) (User, error) {
	if id != r.usr.ID {
		return User{}, ErrNotFound
	}
	return r.usr, nil
}

func (r *resetRepo) UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error) {
	if usr.PasswordHash != nil {
		r.usr.PasswordHash = usr.PasswordHash
	}
	return r.usr, nil
}

func TestService_ResetPassword(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	usr := User{ID: "c7c7be01-33f0-4b32-b2cb-8b7bf6e9fc7e", Email: "awe@escola.cd"}
	require.NoError(t, usr.SetPassword("mdr"))

	repo := &resetRepo{usr: usr}
	svc := &service{repo: repo}

	err := svc.ResetPassword(context.Background(), ResetUserPassword{
		Token:           makeToken(usr),
		UID:             EncodeUID(usr),
		Password:        "NewLolMdr057",
		PasswordConfirm: "NewLolMdr057",
	})
	require.NoError(t, err)
	assert.NoError(t, repo.usr.CheckPassword("NewLolMdr057"))
	assert.Error(t, repo.usr.CheckPassword("mdr"))

	t.Run("token is single-use", func(t *testing.T) {
		// the hash changed, so the old token no longer verifies
		err := svc.ResetPassword(context.Background(), ResetUserPassword{
			Token:           makeToken(usr),
			UID:             EncodeUID(usr),
			Password:        "AnotherLol057",
			PasswordConfirm: "AnotherLol057",
		})
		assert.Error(t, err)
	})
}
