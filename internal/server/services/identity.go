// Package services contains server-side business logic. This file implements
// IdentityService: sign-up with a mailed confirmation code, sign-in issuing
// JWTs plus server-stored refresh tokens, and password reset.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/dbx"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/passwd"
	"github.com/dmitrijs2005/safelocker/internal/server/auth"
	"github.com/dmitrijs2005/safelocker/internal/server/config"
	"github.com/dmitrijs2005/safelocker/internal/server/mail"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/repomanager"
)

// Code lifetimes.
const (
	ConfirmCodeValidity = 24 * time.Hour
	ResetCodeValidity   = time.Hour
)

// User-facing failures.
var (
	ErrBadCredentials = common.WithMessage(common.ErrorUnauthorized, "Incorrect username or password.")
	ErrEmailTaken     = common.WithMessage(common.ErrorAlreadyExists, "An account with the given email already exists.")
	ErrNotConfirmed   = common.WithMessage(common.ErrUserNotConfirmed, "User is not confirmed.")
	ErrBadCode        = common.WithMessage(common.ErrInvalidCode, "Invalid verification code provided, please try again.")
	ErrBadRefresh     = common.WithMessage(common.ErrRefreshTokenExpired, "Refresh token is invalid or expired.")
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	mailer                       mail.Mailer
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config, logger logging.Logger) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		mailer:                       mailer,
		logger:                       logger.With("module", "identity"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return common.Invalid("Name is required.")
	}
	if _, err := netmail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return common.Invalid("Invalid email address format.")
	}
	return passwd.Validate(password)
}

// SignUp creates an unconfirmed user and mails a confirmation code. The user
// is only kept when the mail went out.
func (s *IdentityService) SignUp(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateSignUp(name, email, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, Name: name, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		code, err := s.issueCode(ctx, tx, u.ID, models.PurposeConfirm, ConfirmCodeValidity)
		if err != nil {
			return nil, err
		}
		if err := s.mailer.Send(ctx, mail.ConfirmationMessage(u.Email, u.Name, code)); err != nil {
			return nil, fmt.Errorf("error sending confirmation: %w", err)
		}
		s.logger.Info(ctx, "Signed up", "user_id", u.ID)
		return u, nil
	})
}

// ConfirmSignUp marks the user confirmed when code is its live confirmation code.
func (s *IdentityService) ConfirmSignUp(ctx context.Context, email, code string) error {
	u, err := s.userForCode(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkCode(ctx, u.ID, models.PurposeConfirm, code); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Confirm(ctx, u.ID); err != nil {
			return fmt.Errorf("error confirming user: %w", err)
		}
		return s.repomanager.Codes(tx).Delete(ctx, u.ID, models.PurposeConfirm)
	})
}

// SignIn checks the credentials of a confirmed user and returns a new TokenPair.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	u, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, ErrBadCredentials
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, nil, ErrBadCredentials
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !u.Confirmed {
		return nil, nil, ErrNotConfirmed
	}

	pair, err := s.generateTokenPair(ctx, u.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// RefreshToken redeems refreshToken and returns a fresh TokenPair. Each
// refresh token works once.
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrBadRefresh
			}
			return nil, fmt.Errorf("error consuming refresh token: %w", err)
		}
		if token.Expires.Before(time.Now()) {
			return nil, ErrBadRefresh
		}
		return s.generateTokenPair(ctx, token.UserID, tx)
	})
}

// SignOut revokes refreshToken.
func (s *IdentityService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// ForgotPassword mails a reset code. Unknown emails succeed silently.
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "Reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	code, err := s.issueCode(ctx, s.db, u.ID, models.PurposeReset, ResetCodeValidity)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, mail.ResetMessage(u.Email, code)); err != nil {
		return fmt.Errorf("error sending reset code: %w", err)
	}
	return nil
}

// ConfirmForgotPassword sets a new password when code is the live reset code
// and signs the user out everywhere.
func (s *IdentityService) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	if err := passwd.Validate(newPassword); err != nil {
		return err
	}
	u, err := s.userForCode(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkCode(ctx, u.ID, models.PurposeReset, code); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, u.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repomanager.Codes(tx).Delete(ctx, u.ID, models.PurposeReset); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, u.ID)
	})
}

// CurrentUser loads the user behind an access token.
func (s *IdentityService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// --- helpers below ---

// userForCode hides whether email exists behind ErrBadCode.
func (s *IdentityService) userForCode(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrBadCode
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, nil
}

func (s *IdentityService) issueCode(ctx context.Context, db dbx.DBTX, userID string, purpose models.CodePurpose, validity time.Duration) (string, error) {
	code, hash, err := auth.NewCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	if err := s.repomanager.Codes(db).Upsert(ctx, userID, purpose, hash, validity); err != nil {
		return "", fmt.Errorf("error storing code: %w", err)
	}
	return code, nil
}

func (s *IdentityService) checkCode(ctx context.Context, userID string, purpose models.CodePurpose, code string) error {
	stored, err := s.repomanager.Codes(s.db).Find(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrBadCode
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if stored.Expires.Before(time.Now()) || !auth.CodeMatches(stored.Hash, strings.TrimSpace(code)) {
		return ErrBadCode
	}
	return nil
}

func (s *IdentityService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
