// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/middleware"
	requestutil "github.com/taibuivan/contactbook/internal/platform/request"
	"github.com/taibuivan/contactbook/internal/platform/respond"
	"github.com/taibuivan/contactbook/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the account lifecycle entry points (registration,
// login, token refresh, email confirmation and password reset callbacks).
type Handler struct {
	authService   *Service
	publicBaseURL string
}

// NewHandler constructs a new [Handler].
//
// publicBaseURL prefixes links in outgoing mail; when empty the origin of
// each request is used.
func NewHandler(service *Service, publicBaseURL string) *Handler {
	return &Handler{authService: service, publicBaseURL: publicBaseURL}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register                : Creates a new account.
//   - POST /login                   : Exchanges credentials for a token pair.
//   - POST /refresh                 : Exchanges a refresh token for a new access token.
//   - POST /logout                  : Revokes the refresh token.
//   - GET  /confirmed_email/{token} : Confirms an email address.
//   - POST /request_email           : Sends a new confirmation link.
//   - POST /password-reset-request  : Sends a password reset link.
//   - GET  /password-reset          : Checks a reset token.
//   - POST /password-reset          : Sets a new password.
//   - GET  /admin                   : Administrator greeting.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Get("/confirmed_email/{token}", handler.confirmEmail)
	router.Post("/request_email", handler.requestEmail)
	router.Post("/password-reset-request", handler.requestPasswordReset)
	router.Get("/password-reset", handler.checkResetToken)
	router.Post("/password-reset", handler.resetPassword)

	// Protected endpoints. Only this group resolves the bearer token.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authService))
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/admin", handler.admin)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// Messages returned by the confirmation and reset endpoints.
const (
	messageCheckEmail       = "Check your email for confirmation."
	messageEmailConfirmed   = "Email confirmed"
	messageAlreadyConfirmed = "Your email is already confirmed"
	messageTokenValid       = "Token is valid"
	messagePasswordReset    = "Password has been reset successfully"
)

/*
Register handles the creation of a new account.

POST /api/auth/register

Description: Validates input, checks for identity conflicts, persists the
account and sends a confirmation email.

Request:
  - Body: registerRequest (Username, Email, Password)

Response:
  - 201: Account: Created account
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrEmailTaken / ErrUsernameTaken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLength).
		MaxLen(FieldUsername, input.Username, UsernameMaxLength).
		Required(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, EmailMaxLength).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		BaseURL:  requestutil.BaseURL(request, handler.publicBaseURL),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

/*
Login authenticates an account and returns a token pair.

POST /api/auth/login

Description: Accepts either a JSON body or an OAuth2 password-grant style
form. The token pair is returned as a bare JSON object.

Request:
  - Body: loginRequest (Username, Password) as JSON or form fields

Response:
  - 200: TokenPair
  - 401: ErrInvalidCredentials
  - 403: ErrEmailNotConfirmed
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if isForm(request) {
		input.Username = request.PostFormValue(FieldUsername)
		input.Password = request.PostFormValue(FieldPassword)
	} else if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeTokenPair(writer, pair)
}

/*
Refresh exchanges a refresh token for a new access token.

POST /api/auth/refresh

Request:
  - Body: refreshRequest (RefreshToken), or
  - Header: Authorization: Bearer <refresh token>

Response:
  - 200: TokenPair (same refresh token)
  - 401: ErrInvalidToken
  - 404: ErrNotFound
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if request.ContentLength > 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	if input.RefreshToken == "" {
		token, err := requestutil.BearerToken(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		input.RefreshToken = token
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	pair, err := handler.authService.RefreshAccessToken(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeTokenPair(writer, pair)
}

/*
Logout revokes the refresh token of the current account.

POST /api/auth/logout

Response:
  - 204: No Content
  - 401: Unauthenticated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	account, err := AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), account); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ConfirmEmail marks the address named by a verification link as confirmed.

GET /api/auth/confirmed_email/{token}

Response:
  - 200: messageResponse ("Email confirmed" or "Your email is already confirmed")
  - 400: ErrVerificationFailed
  - 422: ErrUnprocessableToken
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, FieldToken)

	alreadyConfirmed, err := handler.authService.ConfirmEmail(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if alreadyConfirmed {
		respond.JSON(writer, http.StatusOK, messageResponse{Message: messageAlreadyConfirmed})
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: messageEmailConfirmed})
}

/*
RequestEmail sends a new confirmation link.

POST /api/auth/request_email

Description: Always answers with the same message so the endpoint cannot be
used to discover registered addresses.

Request:
  - Body: emailRequest (Email)

Response:
  - 200: messageResponse
*/
func (handler *Handler) requestEmail(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	baseURL := requestutil.BaseURL(request, handler.publicBaseURL)
	if err := handler.authService.RequestEmailConfirmation(request.Context(), email, baseURL); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: messageCheckEmail})
}

/*
RequestPasswordReset sends a password reset link.

POST /api/auth/password-reset-request

Request:
  - Body: emailRequest (Email)

Response:
  - 200: messageResponse (same body whether or not the account exists)
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	email, ok := handler.decodeEmail(writer, request)
	if !ok {
		return
	}

	baseURL := requestutil.BaseURL(request, handler.publicBaseURL)
	if err := handler.authService.RequestPasswordReset(request.Context(), email, baseURL); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: messageCheckEmail})
}

/*
CheckResetToken reports whether a reset link is still usable.

GET /api/auth/password-reset?token=

Response:
  - 200: messageResponse (with Email)
  - 400: Invalid or expired token
*/
func (handler *Handler) checkResetToken(writer http.ResponseWriter, request *http.Request) {
	email, err := handler.authService.ValidateResetToken(request.URL.Query().Get(FieldToken))
	if err != nil {
		respond.Error(writer, request, asBadRequest(err))
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: messageTokenValid, Email: email})
}

/*
ResetPassword sets a new password from a reset link.

POST /api/auth/password-reset

Request:
  - Body: resetPasswordRequest (Token, NewPassword)

Response:
  - 200: messageResponse
  - 400: Invalid token, unknown account or validation failure
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, NewPasswordMinLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, asBadRequest(err))
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: messagePasswordReset})
}

/*
Admin greets an administrator.

GET /api/auth/admin

Response:
  - 200: messageResponse
  - 403: ErrForbidden
*/
func (handler *Handler) admin(writer http.ResponseWriter, request *http.Request) {
	account, err := AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	admin, err := handler.authService.RequireAdmin(account)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, messageResponse{Message: fmt.Sprintf("Hello, admin %s", admin.Username)})
}

// # Helpers

/*
AccountFrom returns the account attached to the request by the authentication middleware.

Returns:
  - *Account: The authenticated account
  - error: ErrUnauthenticated if the request carries no account
*/
func AccountFrom(request *http.Request) (*Account, error) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		return nil, err
	}

	account, ok := principal.(*Account)
	if !ok {
		return nil, ErrUnauthenticated
	}

	return account, nil
}

func (handler *Handler) decodeEmail(writer http.ResponseWriter, request *http.Request) (string, bool) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}

	return input.Email, true
}

// writeTokenPair writes pair as a bare JSON object that must not be cached.
func writeTokenPair(writer http.ResponseWriter, pair *TokenPair) {
	writer.Header().Set(constants.HeaderCacheControl, "no-store")
	writer.Header().Set(constants.HeaderPragma, "no-cache")
	respond.JSON(writer, http.StatusOK, pair)
}

// asBadRequest reports a bad reset token as 400 instead of 422.
func asBadRequest(err error) error {
	if errors.Is(err, ErrUnprocessableToken) {
		return ErrUnprocessableToken.WithStatus(http.StatusBadRequest)
	}
	return err
}

func isForm(request *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
