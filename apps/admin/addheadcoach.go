package main

import (
	"context"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/user"
)

// addHeadCoach creates a pre-approved head coach account.
func (cli *commandLine) addHeadCoach(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	if err := cli.usrRepo.CheckEmailUniqueness(ctx, email); err != nil {
		return err
	}

	usr := user.User{
		Name:     name,
		Email:    email,
		Role:     user.RoleHeadCoach,
		Approved: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrRepo.CreateUser(ctx, usr)
	return err
}
