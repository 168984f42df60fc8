// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/contactbook/internal/platform/apperr"
	"github.com/taibuivan/contactbook/internal/platform/sec"
)

var (
	// ErrCacheMiss is returned by [SessionStore.Get] for an absent or expired key.
	ErrCacheMiss = errors.New("auth: session store key not found")

	// ErrAccountNotFound is returned by [Directory] lookups and updates that match no account.
	ErrAccountNotFound = apperr.NotFound("Account")
)

// # Account Data Access

// Directory defines the data access contract for account records.
type Directory interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *Account: Hydrated entity
		  - error: ErrAccountNotFound or storage failures
	*/
	FindByID(ctx context.Context, id int64) (*Account, error)

	// FindByUsername returns the account with the given username.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// FindByEmail returns the account with the given (normalized) email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	/*
		Create persists a new account and fills in its ID and CreatedAt.

		Returns:
		  - error: ErrEmailTaken / ErrUsernameTaken on uniqueness violations,
		    or storage failures
	*/
	Create(ctx context.Context, account *Account) error

	// SetConfirmed marks the account with the given email as confirmed.
	SetConfirmed(ctx context.Context, email string) error

	// SetPasswordHash replaces the password hash of the account with the given email.
	SetPasswordHash(ctx context.Context, email, hash string) error

	// SetAvatar replaces the avatar URL of the account with the given email.
	SetAvatar(ctx context.Context, email, avatarURL string) error

	// SetRole changes the role of the account with the given email.
	SetRole(ctx context.Context, email string, role sec.UserRole) error
}

// # Volatile Data Access

// SessionStore is the revocable key-value store with per-key expiry.
//
// Each call is atomic on its own key; no multi-key transactions are needed.
type SessionStore interface {

	/*
		Get returns the value stored under key.

		Returns:
		  - string: The stored value
		  - error: ErrCacheMiss when absent, anything else is a store failure
	*/
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for ttl, replacing any previous value.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
