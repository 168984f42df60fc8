// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the profile endpoints of the authenticated user.

It exposes the current account and lets administrators replace their avatar
with an image kept in S3-compatible object storage.

# Security

Every endpoint requires an account resolved by the authentication middleware.
*/
package account

import (
	"context"
	"net/http"

	"github.com/taibuivan/contactbook/internal/platform/apperr"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

// # Contracts

// AvatarStore persists avatar images and returns their public URL.
type AvatarStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Identity updates the account record behind a profile.
type Identity interface {
	UpdateAvatar(ctx context.Context, account *auth.Account, avatarURL string) (*auth.Account, error)
}

// Avatar is an uploaded image ready to be stored.
type Avatar struct {
	Body        []byte
	ContentType string
}

// # Errors

var (
	// ErrAvatarForbidden is returned when a non-administrator uploads an avatar.
	ErrAvatarForbidden = apperr.New(http.StatusForbidden, "FORBIDDEN", "Only administrators can change their avatar")

	// ErrAvatarTooLarge rejects uploads over the size limit.
	ErrAvatarTooLarge = apperr.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Avatar exceeds the maximum upload size")

	// ErrAvatarType rejects uploads that are not images.
	ErrAvatarType = apperr.New(http.StatusUnprocessableEntity, "UNSUPPORTED_MEDIA", "Avatar must be a JPEG, PNG, GIF or WebP image")

	// ErrAvatarStorageDisabled is returned when no bucket is configured.
	ErrAvatarStorageDisabled = apperr.ServiceUnavailable("Avatar storage is not configured")
)

// FieldFile is the multipart field carrying the avatar.
const FieldFile = "file"
