// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/ctxutil"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

// allowedAvatarTypes lists the sniffed content types accepted as avatars.
var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Service implements the profile use cases.
type Service struct {
	identity Identity
	avatars  AvatarStore
}

// NewService constructs a new account [Service].
//
// avatars may be nil when object storage is not configured; avatar uploads
// then fail with [ErrAvatarStorageDisabled].
func NewService(identity Identity, avatars AvatarStore) *Service {
	return &Service{identity: identity, avatars: avatars}
}

/*
UpdateAvatar stores a new avatar image for an administrator.

The object key is derived from the username, so a new upload replaces the
previous image.

Returns:
  - *auth.Account: The account with its new avatar URL
  - error: ErrAvatarForbidden, ErrAvatarType, ErrAvatarStorageDisabled or storage errors
*/
func (service *Service) UpdateAvatar(ctx context.Context, account *auth.Account, avatar Avatar) (*auth.Account, error) {
	if !account.IsAdmin() {
		return nil, ErrAvatarForbidden
	}

	if !allowedAvatarTypes[avatar.ContentType] {
		return nil, ErrAvatarType
	}

	if service.avatars == nil {
		return nil, ErrAvatarStorageDisabled
	}

	key := constants.AvatarKeyPrefix + account.Username
	avatarURL, err := service.avatars.Put(ctx, key, avatar.Body, avatar.ContentType)
	if err != nil {
		return nil, fmt.Errorf("account_service_avatar_upload_failed: %w", err)
	}

	updated, err := service.identity.UpdateAvatar(ctx, account, avatarURL)
	if err != nil {
		// An object the account never pointed to would be orphaned.
		if account.Avatar != avatarURL {
			if derr := service.avatars.Delete(ctx, key); derr != nil {
				ctxutil.GetLogger(ctx).WarnContext(ctx, "account_avatar_cleanup_failed",
					slog.String("key", key),
					slog.Any("error", derr),
				)
			}
		}
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_avatar_updated",
		slog.Int64("user_id", account.ID),
		slog.Int("bytes", len(avatar.Body)),
	)
	return updated, nil
}
