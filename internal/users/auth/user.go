// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account identity and the session-trust core.

It owns the Account entity, credential verification, access and refresh
token issuance, refresh-token revocation through the session store, the
email verification and password reset token flows, and the resolution of a
bearer token to the account it belongs to.

# Architecture

The [Service] depends only on two narrow contracts: a [Directory] of account
records (PostgreSQL in production) and a [SessionStore] of expiring keys
(Redis in production). Both are injected, so tests substitute in-memory fakes.
*/
package auth

import (
	"time"

	"github.com/taibuivan/contactbook/internal/platform/sec"
)

// # Domain Entities

// Account represents a registered owner of an address book.
type Account struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never serialized.
	Role         sec.UserRole `json:"role"`
	Confirmed    bool         `json:"confirmed"`
	Avatar       string       `json:"avatar"`
	CreatedAt    time.Time    `json:"created_at"`
}

// PrincipalID implements [sec.Principal].
func (account *Account) PrincipalID() int64 { return account.ID }

// PrincipalName implements [sec.Principal].
func (account *Account) PrincipalName() string { return account.Username }

// PrincipalRole implements [sec.Principal].
func (account *Account) PrincipalRole() sec.UserRole { return account.Role }

// IsAdmin reports whether the account holds the admin role.
func (account *Account) IsAdmin() bool { return account.Role == sec.RoleAdmin }

// Snapshot is the denormalized projection of an Account kept in the session store.
type Snapshot struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Avatar    string    `json:"avatar"`
	Confirmed bool      `json:"confirmed"`
}

// SnapshotOf projects an account into its cached form.
func SnapshotOf(account *Account) Snapshot {
	return Snapshot{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		Avatar:    account.Avatar,
		Confirmed: account.Confirmed,
	}
}

// TokenPair is the OAuth2-style body returned by the token endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// # Field Identifiers

// Field names used in validation errors of the authentication endpoints.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldToken        = "token"
	FieldNewPassword  = "new_password"
	FieldRefreshToken = "refresh_token"
)
