// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/contactbook/internal/platform/apperr"
)

// Errors returned by the auth core. Callers match them with errors.Is.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = apperr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")

	// ErrEmailNotConfirmed is returned on login before the address is verified.
	ErrEmailNotConfirmed = apperr.New(http.StatusForbidden, "EMAIL_NOT_CONFIRMED", "Email address is not confirmed")

	// ErrInvalidToken rejects a refresh token that is malformed, expired,
	// wrongly scoped, revoked or unverifiable.
	ErrInvalidToken = apperr.New(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or revoked refresh token")

	// ErrUnauthenticated rejects a bearer token that does not resolve to an account.
	ErrUnauthenticated = apperr.New(http.StatusUnauthorized, "UNAUTHENTICATED", "Could not validate credentials")

	// ErrForbidden is returned by the admin gate.
	ErrForbidden = apperr.New(http.StatusForbidden, "FORBIDDEN", "Administrator role required")

	// ErrUnprocessableToken rejects a malformed or expired verification or reset token.
	ErrUnprocessableToken = apperr.New(http.StatusUnprocessableEntity, "UNPROCESSABLE_TOKEN", "Invalid or expired token")

	// ErrNotFound is returned when a valid refresh token names a vanished account.
	ErrNotFound = apperr.NotFound("User")

	// ErrEmailTaken and ErrUsernameTaken are the registration conflicts.
	ErrEmailTaken    = apperr.Conflict("A user with this email already exists")
	ErrUsernameTaken = apperr.Conflict("A user with this username already exists")

	// ErrVerificationFailed is returned when a verification token names an unknown address.
	ErrVerificationFailed = apperr.New(http.StatusBadRequest, "VERIFICATION_ERROR", "Verification error")

	// ErrResetAccountMissing is returned when a reset token names an unknown address.
	ErrResetAccountMissing = apperr.New(http.StatusBadRequest, "USER_NOT_FOUND", "User not found")
)
