// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/contactbook/internal/mail"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

/*
TestService_Login covers the credential checks and the refresh slot write.
*/
func TestService_Login(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"success", "alice", testPassword, nil},
		{"wrong_password", "alice", "nope", auth.ErrInvalidCredentials},
		{"unknown_username", "mallory", testPassword, auth.ErrInvalidCredentials},
		{"surrounding_space", "  alice ", testPassword, nil},
		{"case_sensitive", "Alice", testPassword, auth.ErrInvalidCredentials},
		{"unconfirmed", "bob", testPassword, auth.ErrEmailNotConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
			f.seed(t, "bob", "bob@example.com", false, sec.RoleUser)

			pair, err := f.service.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "bearer", pair.TokenType)
			assert.Equal(t, 3600, pair.ExpiresIn)

			stored, ok := f.sessions.value("refresh:alice")
			require.True(t, ok)
			assert.Equal(t, pair.RefreshToken, stored)
			assert.Equal(t, auth.RefreshTokenTTL, f.sessions.ttls["refresh:alice"])

			claims, err := f.codec.Decode(pair.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
			assert.Equal(t, sec.ScopeAccess, claims.Scope)
		})
	}
}

/*
TestService_Login_StoreDown still issues a pair when the refresh slot cannot be written.
*/
func TestService_Login_StoreDown(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
	f.sessions.setDown(true)

	pair, err := f.service.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	// The unstored refresh token is useless.
	f.sessions.setDown(false)
	_, err = f.service.RefreshAccessToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

/*
TestService_RefreshAccessToken checks that only the latest refresh token works.
*/
func TestService_RefreshAccessToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)

	first, err := f.service.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	second, err := f.service.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.service.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	pair, err := f.service.RefreshAccessToken(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, second.RefreshToken, pair.RefreshToken)
	assert.NotEmpty(t, pair.AccessToken)

	claims, err := f.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sec.ScopeAccess, claims.Scope)

	// No rotation: the same refresh token keeps working.
	_, err = f.service.RefreshAccessToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

/*
TestService_RefreshAccessToken_Rejections covers every fail-closed branch.
*/
func TestService_RefreshAccessToken_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("access_token", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
		pair, err := f.service.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		_, err = f.service.RefreshAccessToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.RefreshAccessToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no_slot", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.codec.Issue("alice", sec.ScopeRefresh, auth.RefreshTokenTTL)
		require.NoError(t, err)

		_, err = f.service.RefreshAccessToken(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("store_down", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
		pair, err := f.service.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		f.sessions.setDown(true)
		_, err = f.service.RefreshAccessToken(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("account_removed", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
		pair, err := f.service.Login(ctx, "alice", testPassword)
		require.NoError(t, err)

		f.directory.remove("alice")
		_, err = f.service.RefreshAccessToken(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

/*
TestService_ResolveCurrentUser covers the snapshot signal and the directory lookup.
*/
func TestService_ResolveCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seeded := f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)

	token, err := f.codec.Issue("alice", sec.ScopeAccess, auth.SnapshotTTL)
	require.NoError(t, err)

	// Miss: resolves and writes the snapshot.
	account, err := f.service.ResolveCurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, account.ID)

	raw, ok := f.sessions.value("user:alice")
	require.True(t, ok)
	assert.Equal(t, auth.SnapshotTTL, f.sessions.ttls["user:alice"])

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	assert.ElementsMatch(t,
		[]string{"id", "username", "email", "created_at", "avatar", "confirmed"},
		keys(snapshot),
	)
	assert.Equal(t, "alice@example.com", snapshot["email"])

	// Hit: no second write.
	writes := f.sessions.sets
	_, err = f.service.ResolveCurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, writes, f.sessions.sets)

	// Store down: still resolves from the directory.
	f.sessions.setDown(true)
	account, err = f.service.ResolveCurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
}

/*
TestService_ResolveCurrentUser_Rejections maps every failure to ErrUnauthenticated.
*/
func TestService_ResolveCurrentUser_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.ResolveCurrentUser(ctx, "garbage")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("unknown_subject", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.codec.Issue("ghost", sec.ScopeAccess, auth.SnapshotTTL)
		require.NoError(t, err)

		_, err = f.service.ResolveCurrentUser(ctx, token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("directory_failure", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
		f.directory.findErr = errors.New("connection reset")

		token, err := f.codec.Issue("alice", sec.ScopeAccess, auth.SnapshotTTL)
		require.NoError(t, err)

		_, err = f.service.ResolveCurrentUser(ctx, token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

/*
TestService_RequireAdmin only lets the admin role through.
*/
func TestService_RequireAdmin(t *testing.T) {
	f := newFixture(t)

	admin := &auth.Account{Username: "root", Role: sec.RoleAdmin}
	got, err := f.service.RequireAdmin(admin)
	require.NoError(t, err)
	assert.Same(t, admin, got)

	_, err = f.service.RequireAdmin(&auth.Account{Username: "alice", Role: sec.RoleUser})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

/*
TestService_EmailTokens round-trips verification and reset tokens.
*/
func TestService_EmailTokens(t *testing.T) {
	f := newFixture(t)

	verification, err := f.service.IssueEmailVerificationToken("alice@example.com")
	require.NoError(t, err)
	email, err := f.service.ResolveEmailFromToken(verification)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	reset, err := f.service.IssuePasswordResetToken("alice@example.com")
	require.NoError(t, err)
	email, err = f.service.ResolveEmailFromToken(reset)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	access, err := f.codec.Issue("alice", sec.ScopeAccess, auth.SnapshotTTL)
	require.NoError(t, err)
	_, err = f.service.ResolveEmailFromToken(access)
	assert.ErrorIs(t, err, auth.ErrUnprocessableToken)

	_, err = f.service.ResolveEmailFromToken("garbage")
	assert.ErrorIs(t, err, auth.ErrUnprocessableToken)
}

/*
TestService_Register persists the account and sends a confirmation link.
*/
func TestService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	account, err := f.service.Register(ctx, auth.RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.COM ",
		Password: "secret1",
		BaseURL:  "http://localhost:8080",
	})
	require.NoError(t, err)

	assert.NotZero(t, account.ID)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, sec.RoleUser, account.Role)
	assert.False(t, account.Confirmed)
	assert.True(t, strings.HasPrefix(account.Avatar, "https://www.gravatar.com/avatar/"))
	assert.NotEqual(t, "secret1", account.PasswordHash)

	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.KindVerifyEmail, sent[0].Kind)
	assert.Equal(t, "alice@example.com", sent[0].To)

	email, err := f.service.ResolveEmailFromToken(sent[0].Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = f.service.Register(ctx, auth.RegisterInput{Username: "other", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = f.service.Register(ctx, auth.RegisterInput{Username: "alice", Email: "new@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

/*
TestService_ConfirmEmail is idempotent and rejects unknown addresses.
*/
func TestService_ConfirmEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "bob", "bob@example.com", false, sec.RoleUser)

	token, err := f.service.IssueEmailVerificationToken("bob@example.com")
	require.NoError(t, err)

	already, err := f.service.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = f.service.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already)

	_, err = f.service.Login(ctx, "bob", testPassword)
	assert.NoError(t, err)

	unknown, err := f.service.IssueEmailVerificationToken("ghost@example.com")
	require.NoError(t, err)
	_, err = f.service.ConfirmEmail(ctx, unknown)
	assert.ErrorIs(t, err, auth.ErrVerificationFailed)
}

/*
TestService_RequestEmailConfirmation only mails unconfirmed accounts.
*/
func TestService_RequestEmailConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
	f.seed(t, "bob", "bob@example.com", false, sec.RoleUser)

	require.NoError(t, f.service.RequestEmailConfirmation(ctx, "alice@example.com", "http://localhost"))
	require.NoError(t, f.service.RequestEmailConfirmation(ctx, "ghost@example.com", "http://localhost"))
	require.NoError(t, f.service.RequestEmailConfirmation(ctx, "bob@example.com", "http://localhost"))

	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "bob@example.com", sent[0].To)
}

/*
TestService_PasswordReset sets the new password and revokes the session slots.
*/
func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)

	pair, err := f.service.Login(ctx, "alice", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "ghost@example.com", "http://localhost"))
	require.Empty(t, f.mailer.sent())

	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com", "http://localhost"))
	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, mail.KindResetPassword, sent[0].Kind)

	email, err := f.service.ValidateResetToken(sent[0].Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	require.NoError(t, f.service.ResetPassword(ctx, sent[0].Token, "brand-new"))

	_, ok := f.sessions.value("refresh:alice")
	assert.False(t, ok)
	_, err = f.service.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = f.service.Login(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.service.Login(ctx, "alice", "brand-new")
	assert.NoError(t, err)

	orphan, err := f.service.IssuePasswordResetToken("ghost@example.com")
	require.NoError(t, err)
	assert.ErrorIs(t, f.service.ResetPassword(ctx, orphan, "whatever"), auth.ErrResetAccountMissing)
	assert.ErrorIs(t, f.service.ResetPassword(ctx, "garbage", "whatever"), auth.ErrUnprocessableToken)
}

/*
TestService_Logout deletes the refresh slot and the snapshot.
*/
func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)

	pair, err := f.service.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	_, err = f.service.ResolveCurrentUser(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, account))

	_, ok := f.sessions.value("refresh:alice")
	assert.False(t, ok)
	_, ok = f.sessions.value("user:alice")
	assert.False(t, ok)

	_, err = f.service.RefreshAccessToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

/*
TestService_UpdateAvatarAndRole updates the directory and drops stale snapshots.
*/
func TestService_UpdateAvatarAndRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.seed(t, "alice", "alice@example.com", true, sec.RoleUser)
	require.NoError(t, f.sessions.Set(ctx, "user:alice", "{}", auth.SnapshotTTL))

	updated, err := f.service.UpdateAvatar(ctx, account, "https://cdn.example/avatars/alice")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/avatars/alice", updated.Avatar)
	_, ok := f.sessions.value("user:alice")
	assert.False(t, ok)

	require.NoError(t, f.service.SetRole(ctx, "ALICE@example.com", sec.RoleAdmin))
	stored, err := f.directory.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, stored.Role)

	assert.Error(t, f.service.SetRole(ctx, "alice@example.com", sec.UserRole("root")))
	assert.ErrorIs(t, f.service.SetRole(ctx, "ghost@example.com", sec.RoleAdmin), auth.ErrAccountNotFound)
}

func keys(values map[string]any) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	return out
}
