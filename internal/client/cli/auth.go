package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// report prints err for the user and returns it unchanged.
func report(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		printlnFn("Error:", apiErr.Message)
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server unavailable, try again later")
	case errors.Is(err, client.ErrNotSignedIn):
		printlnFn("You are not signed in")
	default:
		printlnFn("Error:", err.Error())
	}
	return err
}

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, os.Stdout)
}

func (a *App) password(text string) (string, error) {
	pw, err := getPassword(text, os.Stdout)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Signup prompts for username, email and password and opens a session.
func (a *App) Signup(ctx context.Context) error {
	username, err := a.prompt("Enter username")
	if err != nil {
		return err
	}
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}

	if err := a.api.Signup(ctx, username, email, password); err != nil {
		return report(err)
	}

	a.email = email
	printlnFn("Signed up as", email)
	return nil
}

func (a *App) Signin(ctx context.Context) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}

	if err := a.api.Signin(ctx, email, password); err != nil {
		return report(err)
	}

	a.email = email
	printlnFn("Signed in as", email)
	return nil
}

// Forgot asks the server to mail a confirmation code.
func (a *App) Forgot(ctx context.Context) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}

	if err := a.api.RequestReset(ctx, email); err != nil {
		return report(err)
	}

	a.resetEmail = email
	a.resetToken = ""
	printlnFn("Confirmation code sent to", email)
	return nil
}

// Confirm trades the mailed code for a confirmation token kept for Reset.
func (a *App) Confirm(ctx context.Context) error {
	email, err := a.resetAddress()
	if err != nil {
		return err
	}
	code, err := a.prompt("Enter confirmation code")
	if err != nil {
		return err
	}

	token, err := a.api.Confirm(ctx, email, code)
	if err != nil {
		return report(err)
	}

	a.resetEmail = email
	a.resetToken = token
	printlnFn("Code accepted, use 'reset' to choose a new password")
	return nil
}

// Reset sets a new password using the token obtained by Confirm.
func (a *App) Reset(ctx context.Context) error {
	email, err := a.resetAddress()
	if err != nil {
		return err
	}

	token := a.resetToken
	if token == "" {
		if token, err = a.prompt("Enter confirmation token"); err != nil {
			return err
		}
	}

	password, err := a.password("Enter new password")
	if err != nil {
		return err
	}

	if err := a.api.ResetPassword(ctx, email, password, token); err != nil {
		return report(err)
	}

	a.resetToken = ""
	printlnFn("Password changed, you can sign in now")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return report(err)
	}
	printlnFn("Access token refreshed")
	return nil
}

func (a *App) Signout(ctx context.Context) error {
	err := a.api.Signout(ctx)
	a.email = ""
	if err != nil {
		return report(err)
	}
	printlnFn("Signed out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	p, err := a.api.Me(ctx)
	if err != nil {
		return report(err)
	}

	printlnFn(fmt.Sprintf("id:       %s", p.ID))
	printlnFn(fmt.Sprintf("username: %s", p.Username))
	printlnFn(fmt.Sprintf("email:    %s", p.Email))
	printlnFn(fmt.Sprintf("created:  %s", p.CreatedAt.Format("2006-01-02 15:04:05")))
	return nil
}

// resetAddress returns the email of the reset in progress, asking if none.
func (a *App) resetAddress() (string, error) {
	if a.resetEmail != "" {
		return a.resetEmail, nil
	}
	return a.prompt("Enter email")
}
