// Package session keeps track of who is signed in and fronts the identity
// collaborator with the client-side checks and messages of the sign-in,
// sign-up and password reset flows.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/passwd"
)

// User is the signed-in account.
type User struct {
	Username string
	UserID   string
	Name     string
	Email    string
}

// Identity is the hosted identity collaborator.
type Identity interface {
	CurrentUser(ctx context.Context) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, name, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmResetPassword(ctx context.Context, email, code, newPassword string) error
}

// User-facing messages of the identity flows. The *Failed ones are used when
// the collaborator fails without saying why.
const (
	MsgSignInFailed       = "Login failed. Please check your credentials."
	MsgSignUpFailed       = "Signup failed."
	MsgConfirmFailed      = "Invalid OTP. Please try again."
	MsgResetCodeFailed    = "Failed to send code."
	MsgConfirmResetFailed = "Failed to reset password. Invalid code?"
	MsgResetCodeSent      = "A verification code has been sent to your email."
	MsgPasswordResetDone  = "Password reset successfully! You can now log in."
)

// ErrInvalidPassword is returned before any call when a password does not
// satisfy the policy.
var ErrInvalidPassword = passwd.ErrInvalidPassword

// ValidatePassword checks pw against the password policy.
func ValidatePassword(pw string) error {
	return passwd.Validate(pw)
}

// Error is an identity failure. Its text is what the user should see; the
// underlying cause is kept for errors.Is.
type Error struct {
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func fail(op string, err error, fallback string) error {
	return &Error{Op: op, Msg: common.Message(err, fallback), Err: err}
}

// Service wraps an Identity and caches the current user.
type Service struct {
	id     Identity
	logger logging.Logger

	mu   sync.RWMutex
	user *User
}

func New(id Identity, logger logging.Logger) *Service {
	return &Service{id: id, logger: logger.With("module", "session")}
}

// User returns the cached user or nil when nobody is signed in.
func (s *Service) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Service) setUser(u *User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// Bootstrap restores an existing session. Any failure leaves the service
// signed out.
func (s *Service) Bootstrap(ctx context.Context) *User {
	u, err := s.id.CurrentUser(ctx)
	if err != nil || u == nil {
		s.logger.Debug(ctx, "no session to restore", "error", err)
		s.setUser(nil)
		return nil
	}
	s.setUser(u)
	return s.User()
}

// SignIn checks the password policy locally and signs in.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	u, err := s.id.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn(ctx, "sign in failed", "email", email, "error", err)
		return nil, fail("sign in", err, MsgSignInFailed)
	}
	s.setUser(u)
	s.logger.Info(ctx, "signed in", "user", u.UserID)
	return s.User(), nil
}

// SignUp checks the password policy locally and registers a new account.
// A confirmation code is sent by the collaborator.
func (s *Service) SignUp(ctx context.Context, name, email, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if err := s.id.SignUp(ctx, name, email, password); err != nil {
		s.logger.Warn(ctx, "sign up failed", "email", email, "error", err)
		return fail("sign up", err, MsgSignUpFailed)
	}
	return nil
}

// ConfirmSignUp submits the emailed code and then signs in with password.
func (s *Service) ConfirmSignUp(ctx context.Context, email, code, password string) (*User, error) {
	if err := s.id.ConfirmSignUp(ctx, email, code); err != nil {
		s.logger.Warn(ctx, "confirm sign up failed", "email", email, "error", err)
		return nil, fail("confirm sign up", err, MsgConfirmFailed)
	}

	u, err := s.id.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn(ctx, "sign in after confirmation failed", "email", email, "error", err)
		return nil, fail("confirm sign up", err, MsgConfirmFailed)
	}
	s.setUser(u)
	return s.User(), nil
}

// SignOut ends the session. The cached user is dropped even when the
// collaborator fails.
func (s *Service) SignOut(ctx context.Context) error {
	err := s.id.SignOut(ctx)
	s.setUser(nil)
	if err != nil {
		s.logger.Warn(ctx, "sign out failed", "error", err)
		return err
	}
	return nil
}

// ResetPassword asks for a reset code to be sent to email.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.id.ResetPassword(ctx, email); err != nil {
		s.logger.Warn(ctx, "reset password failed", "email", email, "error", err)
		return fail("reset password", err, MsgResetCodeFailed)
	}
	return nil
}

// ConfirmResetPassword checks the new password locally and submits it with
// the emailed code.
func (s *Service) ConfirmResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := s.id.ConfirmResetPassword(ctx, email, code, newPassword); err != nil {
		s.logger.Warn(ctx, "confirm reset password failed", "email", email, "error", err)
		return fail("confirm reset password", err, MsgConfirmResetFailed)
	}
	return nil
}
