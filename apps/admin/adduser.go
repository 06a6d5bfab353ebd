package main

import (
	"context"
	"time"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, name, pwd string, roles []string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	if roles == nil {
		roles = []string{user.RoleAdmin}
	}
	for i, role := range roles {
		role = core.CleanString(role, true /* lower */)
		if user.RolePriority(role) == 0 {
			return user.ErrInvalidRole
		}
		roles[i] = role
	}

	usr, err := cli.getUser(ctx, uname, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      name,
			Username:  uname,
			Email:     email,
			Roles:     roles,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		isActive := true
		usr.IsActive = &isActive
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Name = name
	usr.Roles = roles
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}

// getUser looks a user up by username first, then by email.
func (cli *commandLine) getUser(ctx context.Context, uname, email string) (user.User, error) {
	if uname != "" {
		if usr, err := cli.usrRepo.GetUserByUsername(ctx, uname); err == nil {
			return usr, nil
		} else if err != user.ErrNotFound {
			return user.User{}, err
		}
	}
	if email != "" {
		return cli.usrRepo.GetUserByEmail(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}
