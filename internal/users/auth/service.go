// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/apperr"
	"github.com/taibuivan/contactbook/internal/platform/ctxutil"
	"github.com/taibuivan/contactbook/internal/platform/metrics"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/pkg/normalize"
)

// Event names reported to the auth metrics counter.
const (
	eventRegister = "register"
	eventLogin    = "login"
	eventRefresh  = "refresh"
	eventLogout   = "logout"
	eventConfirm  = "confirm_email"
	eventReset    = "password_reset"
)

// gravatarBaseURL serves the default avatar of freshly registered accounts.
const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token scopes
// or refresh-token revocation must be reviewed together with the HTTP layer.
type Service struct {
	directory Directory
	sessions  SessionStore
	hasher    *sec.PasswordHasher
	codec     *sec.TokenCodec
	mailer    mail.Mailer
	accessTTL time.Duration
	metrics   *metrics.Metrics
}

// NewService constructs a new [Service] with necessary dependencies.
//
// collectors may be nil, in which case no metrics are recorded.
func NewService(
	directory Directory,
	sessions SessionStore,
	hasher *sec.PasswordHasher,
	codec *sec.TokenCodec,
	mailer mail.Mailer,
	accessTTL time.Duration,
	collectors *metrics.Metrics,
) *Service {
	return &Service{
		directory: directory,
		sessions:  sessions,
		hasher:    hasher,
		codec:     codec,
		mailer:    mailer,
		accessTTL: accessTTL,
		metrics:   collectors,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string

	// BaseURL prefixes the confirmation link sent by mail.
	BaseURL string
}

/*
Register validates uniqueness, hashes the password and persists a new account.

A verification email is sent afterwards. A mail failure is logged and does not
undo the registration; the user can ask for a new link later.

Returns:
  - *Account: Created entity
  - error: ErrEmailTaken, ErrUsernameTaken or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (account *Account, err error) {
	defer func() { service.metrics.AuthEvent(eventRegister, err) }()

	email := normalize.Email(input.Email)
	username := normalize.Username(input.Username)

	// Email conflicts are reported before username conflicts.
	if _, err := service.directory.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	if _, err := service.directory.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	account = &Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         sec.RoleUser,
		Confirmed:    false,
		Avatar:       gravatarURL(email),
	}

	// Create re-checks uniqueness at the database level for concurrent signups.
	if err := service.directory.Create(ctx, account); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_account_registered",
		slog.Int64("user_id", account.ID),
		slog.String("username", account.Username),
	)

	service.sendVerification(ctx, account, input.BaseURL)
	return account, nil
}

// # Session Flow

/*
Login exchanges a username and password for an access and refresh token pair.

The refresh token replaces any previous one in the single refresh slot of the
account. Storing it is best effort: a store failure is logged and the pair is
still returned, so the client simply cannot refresh until its next login.

Returns:
  - *TokenPair: Access and refresh tokens
  - error: ErrInvalidCredentials or ErrEmailNotConfirmed
*/
func (service *Service) Login(ctx context.Context, username, password string) (pair *TokenPair, err error) {
	defer func() { service.metrics.AuthEvent(eventLogin, err) }()

	logger := ctxutil.GetLogger(ctx)

	account, err := service.directory.FindByUsername(ctx, normalize.Username(username))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			logger.InfoContext(ctx, "auth_login_failed", slog.String("reason", "unknown_username"))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// Same error as the unknown-username branch so accounts cannot be enumerated.
	if !service.hasher.Verify(password, account.PasswordHash) {
		logger.InfoContext(ctx, "auth_login_failed",
			slog.String("reason", "wrong_password"),
			slog.Int64("user_id", account.ID),
		)
		return nil, ErrInvalidCredentials
	}

	if !account.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	accessToken, err := service.codec.Issue(account.Username, sec.ScopeAccess, service.accessTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, err := service.codec.Issue(account.Username, sec.ScopeRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := service.sessions.Set(ctx, refreshKey(account.Username), refreshToken, RefreshTokenTTL); err != nil {
		logger.WarnContext(ctx, "auth_refresh_token_store_failed",
			slog.String("username", account.Username),
			slog.Any("error", err),
		)
	}

	logger.InfoContext(ctx, "auth_login_succeeded", slog.Int64("user_id", account.ID))
	return service.tokenPair(accessToken, refreshToken), nil
}

/*
RefreshAccessToken issues a new access token for a live refresh token.

The presented token must decode, carry the refresh scope and equal the value
held in the refresh slot of its subject. Any store failure rejects the token.
The refresh token itself is returned unchanged.

Returns:
  - *TokenPair: New access token with the same refresh token
  - error: ErrInvalidToken or ErrNotFound
*/
func (service *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { service.metrics.AuthEvent(eventRefresh, err) }()

	logger := ctxutil.GetLogger(ctx)

	claims, err := service.codec.Decode(refreshToken)
	if err != nil || claims.Scope != sec.ScopeRefresh || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	stored, err := service.sessions.Get(ctx, refreshKey(claims.Subject))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.WarnContext(ctx, "auth_refresh_token_lookup_failed",
				slog.String("username", claims.Subject),
				slog.Any("error", err),
			)
		}
		return nil, ErrInvalidToken
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		logger.InfoContext(ctx, "auth_refresh_token_superseded", slog.String("username", claims.Subject))
		return nil, ErrInvalidToken
	}

	account, err := service.directory.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	accessToken, err := service.codec.Issue(account.Username, sec.ScopeAccess, service.accessTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return service.tokenPair(accessToken, refreshToken), nil
}

/*
Logout revokes the refresh slot and the cached snapshot of account.

Access tokens already issued stay valid until they expire.
*/
func (service *Service) Logout(ctx context.Context, account *Account) (err error) {
	defer func() { service.metrics.AuthEvent(eventLogout, err) }()

	if err := service.revokeSessions(ctx, account.Username); err != nil {
		return apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_logout", slog.Int64("user_id", account.ID))
	return nil
}

// # Identity Resolution

/*
ResolveCurrentUser maps a bearer access token to its account.

The snapshot in the session store is only a hit or miss signal: the account
is always read from the directory. On a miss the snapshot is written again.

Returns:
  - *Account: The authenticated account
  - error: ErrUnauthenticated for every failure
*/
func (service *Service) ResolveCurrentUser(ctx context.Context, bearer string) (*Account, error) {
	logger := ctxutil.GetLogger(ctx)

	claims, err := service.codec.Decode(bearer)
	if err != nil || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	username := claims.Subject
	hit := true

	if _, err := service.sessions.Get(ctx, snapshotKey(username)); err != nil {
		hit = false
		if errors.Is(err, ErrCacheMiss) {
			service.metrics.SnapshotLookup("miss")
		} else {
			service.metrics.SnapshotLookup("error")
			logger.WarnContext(ctx, "auth_snapshot_lookup_failed",
				slog.String("username", username),
				slog.Any("error", err),
			)
		}
	} else {
		service.metrics.SnapshotLookup("hit")
	}

	account, err := service.directory.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			logger.WarnContext(ctx, "auth_resolve_lookup_failed",
				slog.String("username", username),
				slog.Any("error", err),
			)
		}
		return nil, ErrUnauthenticated
	}

	if !hit {
		service.storeSnapshot(ctx, account)
	}

	return account, nil
}

// ResolvePrincipal adapts [Service.ResolveCurrentUser] to the authentication middleware.
func (service *Service) ResolvePrincipal(ctx context.Context, token string) (sec.Principal, error) {
	account, err := service.ResolveCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RequireAdmin returns account unchanged when it holds the admin role.
func (service *Service) RequireAdmin(account *Account) (*Account, error) {
	if account == nil || !account.IsAdmin() {
		return nil, ErrForbidden
	}
	return account, nil
}

// # Email Tokens

// IssueEmailVerificationToken signs a confirmation token for email, valid for seven days.
func (service *Service) IssueEmailVerificationToken(email string) (string, error) {
	return service.codec.Issue(email, sec.ScopeNone, VerificationTokenTTL)
}

// IssuePasswordResetToken signs a reset token for email, valid for one hour.
func (service *Service) IssuePasswordResetToken(email string) (string, error) {
	return service.codec.Issue(email, sec.ScopeNone, ResetTokenTTL)
}

/*
ResolveEmailFromToken returns the email address a verification or reset token was issued for.

Session tokens are refused even though they decode, since their subject is a
username and not an address.

Returns:
  - string: The email address
  - error: ErrUnprocessableToken
*/
func (service *Service) ResolveEmailFromToken(token string) (string, error) {
	claims, err := service.codec.Decode(token)
	if err != nil {
		return "", ErrUnprocessableToken
	}

	if claims.Scope == sec.ScopeAccess || claims.Scope == sec.ScopeRefresh || claims.Subject == "" {
		return "", ErrUnprocessableToken
	}

	return claims.Subject, nil
}

/*
ConfirmEmail marks the account named by a verification token as confirmed.

Returns:
  - bool: true when the account was already confirmed
  - error: ErrUnprocessableToken or ErrVerificationFailed
*/
func (service *Service) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	defer func() { service.metrics.AuthEvent(eventConfirm, err) }()

	email, err := service.ResolveEmailFromToken(token)
	if err != nil {
		return false, err
	}

	account, err := service.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, ErrVerificationFailed
		}
		return false, fmt.Errorf("auth_service_confirm_lookup_failed: %w", err)
	}

	if account.Confirmed {
		return true, nil
	}

	if err := service.directory.SetConfirmed(ctx, email); err != nil {
		return false, fmt.Errorf("auth_service_confirm_failed: %w", err)
	}

	service.dropSnapshot(ctx, account.Username)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_email_confirmed", slog.Int64("user_id", account.ID))
	return false, nil
}

// RequestEmailConfirmation sends a new confirmation link when email names an unconfirmed account.
//
// It reports success for unknown addresses so callers cannot probe for accounts.
func (service *Service) RequestEmailConfirmation(ctx context.Context, email, baseURL string) error {
	account, err := service.directory.FindByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("auth_service_request_email_lookup_failed: %w", err)
	}

	if account.Confirmed {
		return nil
	}

	service.sendVerification(ctx, account, baseURL)
	return nil
}

// # Password Reset

// RequestPasswordReset sends a reset link when email names an account.
//
// Unknown addresses are not reported.
func (service *Service) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	account, err := service.directory.FindByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("auth_service_reset_request_lookup_failed: %w", err)
	}

	token, err := service.IssuePasswordResetToken(account.Email)
	if err != nil {
		return apperr.Internal(err)
	}

	service.send(ctx, mail.KindResetPassword, account, token, baseURL)
	return nil
}

// ValidateResetToken returns the address a reset link was sent to.
func (service *Service) ValidateResetToken(token string) (string, error) {
	return service.ResolveEmailFromToken(token)
}

/*
ResetPassword sets a new password for the account named by a reset token.

The refresh slot and the snapshot of the account are revoked so every other
session has to log in again once its access token expires.

Returns:
  - error: ErrUnprocessableToken, ErrResetAccountMissing or storage errors
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { service.metrics.AuthEvent(eventReset, err) }()

	email, err := service.ResolveEmailFromToken(token)
	if err != nil {
		return err
	}

	account, err := service.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrResetAccountMissing
		}
		return fmt.Errorf("auth_service_reset_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.directory.SetPasswordHash(ctx, email, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_failed: %w", err)
	}

	logger := ctxutil.GetLogger(ctx)
	if err := service.revokeSessions(ctx, account.Username); err != nil {
		logger.WarnContext(ctx, "auth_reset_revoke_failed",
			slog.String("username", account.Username),
			slog.Any("error", err),
		)
	}

	logger.InfoContext(ctx, "auth_password_reset", slog.Int64("user_id", account.ID))
	return nil
}

// # Account Administration

// UpdateAvatar stores a new avatar URL for account and drops its cached snapshot.
func (service *Service) UpdateAvatar(ctx context.Context, account *Account, avatarURL string) (*Account, error) {
	if err := service.directory.SetAvatar(ctx, account.Email, avatarURL); err != nil {
		return nil, fmt.Errorf("auth_service_set_avatar_failed: %w", err)
	}

	service.dropSnapshot(ctx, account.Username)

	updated := *account
	updated.Avatar = avatarURL
	return &updated, nil
}

// SetRole grants role to the account registered under email.
func (service *Service) SetRole(ctx context.Context, email string, role sec.UserRole) error {
	if !role.Valid() {
		return apperr.BadRequest(fmt.Sprintf("Unknown role %q", role))
	}

	email = normalize.Email(email)
	if err := service.directory.SetRole(ctx, email, role); err != nil {
		return err
	}

	account, err := service.directory.FindByEmail(ctx, email)
	if err == nil {
		service.dropSnapshot(ctx, account.Username)
	}

	return nil
}

// # Helpers

func (service *Service) tokenPair(accessToken, refreshToken string) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(service.accessTTL.Seconds()),
	}
}

// storeSnapshot writes the identity snapshot of account. Failures are logged only.
func (service *Service) storeSnapshot(ctx context.Context, account *Account) {
	payload, err := json.Marshal(SnapshotOf(account))
	if err == nil {
		err = service.sessions.Set(ctx, snapshotKey(account.Username), string(payload), SnapshotTTL)
	}

	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_snapshot_store_failed",
			slog.String("username", account.Username),
			slog.Any("error", err),
		)
	}
}

func (service *Service) dropSnapshot(ctx context.Context, username string) {
	if err := service.sessions.Delete(ctx, snapshotKey(username)); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_snapshot_delete_failed",
			slog.String("username", username),
			slog.Any("error", err),
		)
	}
}

func (service *Service) revokeSessions(ctx context.Context, username string) error {
	return errors.Join(
		service.sessions.Delete(ctx, refreshKey(username)),
		service.sessions.Delete(ctx, snapshotKey(username)),
	)
}

func (service *Service) sendVerification(ctx context.Context, account *Account, baseURL string) {
	token, err := service.IssueEmailVerificationToken(account.Email)
	if err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_verification_token_failed", slog.Any("error", err))
		return
	}

	service.send(ctx, mail.KindVerifyEmail, account, token, baseURL)
}

// send hands a message to the mailer. Delivery problems never fail the request.
func (service *Service) send(ctx context.Context, kind mail.Kind, account *Account, token, baseURL string) {
	message := mail.Message{
		Kind:      kind,
		To:        account.Email,
		Username:  account.Username,
		BaseURL:   baseURL,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}

	if err := service.mailer.Send(ctx, message); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "auth_mail_send_failed",
			slog.String("kind", string(kind)),
			slog.Int64("user_id", account.ID),
			slog.Any("error", err),
		)
	}
}

// gravatarURL is the default avatar of email.
func gravatarURL(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return gravatarBaseURL + hex.EncodeToString(sum[:]) + "?d=identicon"
}
