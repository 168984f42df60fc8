// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/contactbook/internal/platform/constants"
)

// # Authentication Constraints

const (
	// SnapshotTTL bounds how long an identity snapshot stays in the session store.
	SnapshotTTL = 15 * time.Minute

	// RefreshTokenTTL is both the refresh token expiry and the lifetime of its store slot.
	RefreshTokenTTL = 7 * 24 * time.Hour

	// VerificationTokenTTL is the lifetime of an email confirmation link.
	VerificationTokenTTL = 7 * 24 * time.Hour

	// ResetTokenTTL is the lifetime of a password reset link.
	ResetTokenTTL = 1 * time.Hour

	// TokenTypeBearer is the fixed token_type of every token pair.
	TokenTypeBearer = "bearer"
)

// # Registration Rules

const (
	UsernameMinLength    = 3
	UsernameMaxLength    = 50
	PasswordMinLength    = 6
	NewPasswordMinLength = 3
	EmailMaxLength       = 100
)

// snapshotKey is the session store key of the cached identity of username.
func snapshotKey(username string) string {
	return constants.RedisPrefixUserSnapshot + username
}

// refreshKey is the session store key of the live refresh token of username.
func refreshKey(username string) string {
	return constants.RedisPrefixRefreshToken + username
}
