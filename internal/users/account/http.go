// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/middleware"
	"github.com/taibuivan/contactbook/internal/platform/respond"
	"github.com/taibuivan/contactbook/internal/platform/validate"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// Handler implements the HTTP layer for the current account.
type Handler struct {
	accountService *Service
	profileLimiter *middleware.RateLimiter
}

// NewHandler constructs a new account [Handler].
//
// profileLimiter throttles GET /me per client; it may be shared across routers.
func NewHandler(service *Service, profileLimiter *middleware.RateLimiter) *Handler {
	return &Handler{accountService: service, profileLimiter: profileLimiter}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - GET   /me     : Current account (rate limited).
//   - PATCH /avatar : Replace the avatar (administrators only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.With(handler.profileLimiter.Handler).Get("/me", handler.getMe)
	router.Patch("/avatar", handler.updateAvatar)

	return router
}

/*
GET /api/users/me.

Description: Returns the authenticated account.

Response:
  - 200: Account
  - 401: Authentication required
  - 429: Rate limit exceeded
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
PATCH /api/users/avatar.

Description: Uploads a new avatar image and stores its public URL.

Request:
  - Body: multipart/form-data with a "file" part

Response:
  - 200: Account with the new avatar
  - 403: ErrAvatarForbidden
  - 413: ErrAvatarTooLarge
  - 422: ErrAvatarType
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	avatar, err := readAvatar(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.accountService.UpdateAvatar(request.Context(), account, avatar)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// readAvatar extracts the file part and sniffs its content type.
func readAvatar(writer http.ResponseWriter, request *http.Request) (Avatar, error) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxAvatarBytes+multipartOverhead)

	file, _, err := request.FormFile(FieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Avatar{}, ErrAvatarTooLarge
		}
		return Avatar{}, validate.RequiredError(FieldFile, "An image file is required")
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, constants.MaxAvatarBytes+1))
	if err != nil {
		return Avatar{}, validate.RequiredError(FieldFile, "Could not read the uploaded file")
	}

	if len(body) > constants.MaxAvatarBytes {
		return Avatar{}, ErrAvatarTooLarge
	}

	return Avatar{Body: body, ContentType: http.DetectContentType(body)}, nil
}
