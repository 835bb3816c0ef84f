package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errSignedIn = errors.New("already signed in, logout first")

func (a *App) promptPassword(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// SignUp prompts for name, email and password, registers the account and
// asks for the emailed verification code right away. If the code step fails
// the account stays pending and can be confirmed later with "confirm".
func (a *App) SignUp(ctx context.Context) error {
	if a.isLoggedIn() {
		return errSignedIn
	}

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Enter password")
	if err != nil {
		return err
	}

	if err := a.session.SignUp(ctx, name, email, password); err != nil {
		return err
	}
	a.pendingEmail, a.pendingPassword = email, password

	a.println("Account created. Check your email for the verification code.")
	return a.confirmPending(ctx)
}

// Confirm submits the verification code of a pending sign-up. Without one it
// asks for the account's email and password first.
func (a *App) Confirm(ctx context.Context) error {
	if a.isLoggedIn() {
		return errSignedIn
	}

	if a.pendingEmail == "" {
		email, err := getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
		password, err := a.promptPassword("Enter password")
		if err != nil {
			return err
		}
		a.pendingEmail, a.pendingPassword = email, password
	}
	return a.confirmPending(ctx)
}

func (a *App) confirmPending(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	u, err := a.session.ConfirmSignUp(ctx, a.pendingEmail, code, a.pendingPassword)
	if err != nil {
		return err
	}
	a.pendingEmail, a.pendingPassword = "", ""

	a.printf("Welcome, %s!\n", u.Name)
	return nil
}

// Login prompts for credentials and signs in.
//
// The password is wiped before returning. Failures carry the message the
// user should see.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return errSignedIn
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Enter password")
	if err != nil {
		return err
	}

	u, err := a.session.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	a.listing = a.library.List(ctx)

	a.printf("Welcome, %s!\n", u.Name)
	return nil
}

// Forgot requests a password reset code and then asks for the code and the
// new password. The second step can be repeated with "reset".
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	if err := a.session.ResetPassword(ctx, email); err != nil {
		return err
	}
	a.pendingEmail = email
	a.println(session.MsgResetCodeSent)

	return a.resetPending(ctx)
}

// Reset completes a password reset with the emailed code.
func (a *App) Reset(ctx context.Context) error {
	if a.pendingEmail == "" {
		email, err := getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
		a.pendingEmail = email
	}
	return a.resetPending(ctx)
}

func (a *App) resetPending(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Enter new password")
	if err != nil {
		return err
	}

	if err := a.session.ConfirmResetPassword(ctx, a.pendingEmail, code, password); err != nil {
		return err
	}
	a.pendingEmail = ""

	a.println(session.MsgPasswordResetDone)
	return nil
}

// Logout signs out and forgets the last listing.
func (a *App) Logout(ctx context.Context) error {
	a.listing = locker.Folders{}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	a.println("Signed out.")
	return nil
}
