package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

// addUser creates a staff account, holding it to the same rules as the API.
func (cli *commandLine) addUser(name, uname, email, pwd string, roles []string) error {
	ctx := context.Background()
	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	}
	if err := nu.Validate(ctx, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Fprintf(cli.out, "created user %s (%s)\n", usr.ID, usr.Username)
	return nil
}

// resetPassword sets a new password for the account named by username or email.
// The password policy is not applied: this is the way back in for a locked out owner.
func (cli *commandLine) resetPassword(login, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: core.CleanString(login, true /* lower */)})
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "saving user")
	}
	fmt.Fprintf(cli.out, "password of %s changed\n", usr.ID)
	return nil
}
