package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/factfeed/internal/client/services"
	"github.com/dmitrijs2005/factfeed/internal/common"
)

// readCredentials prompts for email and password.
func (a *App) readCredentials() (string, string, error) {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	if email == "" {
		return "", "", errors.New("email is required")
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		return "", "", errors.New("password is required")
	}
	return email, string(password), nil
}

func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in, logout first.")
		return nil
	}

	email, password, err := a.readCredentials()
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	id, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}

	printlnFn("Logged in as", id.Email)
	a.store.Wait()
	return a.List(ctx)
}

func (a *App) Signup(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in, logout first.")
		return nil
	}

	email, password, err := a.readCredentials()
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	res, err := a.sessions.Signup(ctx, email, password)
	if err != nil {
		printlnFn("Signup failed:", err)
		return err
	}

	switch res.Outcome {
	case services.SignupLoggedIn:
		printlnFn("Signed up and logged in as", res.Identity.Email)
		a.store.Wait()
		return a.List(ctx)
	default:
		printlnFn(res.Message)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		a.log.Warn(ctx, "logout reported an error", "error", err)
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	id := a.sessions.CurrentIdentity()
	if id == nil {
		printlnFn("Not logged in")
		return nil
	}
	printlnFn(id.Email, "("+id.ID+")")
	return nil
}
