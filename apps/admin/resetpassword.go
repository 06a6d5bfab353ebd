package main

import (
	"context"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}

func (cli *commandLine) assignRole(uname, role string) error {
	ctx := context.Background()
	role = core.CleanString(role, true /* lower */)
	if user.RolePriority(role) == 0 {
		return user.ErrInvalidRole
	}
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if usr.HasRole(role) {
		return nil
	}
	_, err = cli.usrRepo.SetUserRoles(ctx, usr.ID, append(usr.Roles, role))
	return err
}
