// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/contactbook/internal/platform/middleware"
	requestutil "github.com/taibuivan/contactbook/internal/platform/request"
	"github.com/taibuivan/contactbook/internal/platform/respond"
	"github.com/taibuivan/contactbook/internal/platform/validate"
	"github.com/taibuivan/contactbook/internal/users/auth"
	"github.com/taibuivan/contactbook/pkg/pagination"
)

// Handler implements the address book HTTP endpoints.
type Handler struct {
	contactService *Service
}

// NewHandler constructs a new contacts [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{contactService: service}
}

// Routes returns a [chi.Router] configured with the contacts endpoints.
//
// # Endpoints
//   - GET    /           : Paginated, searchable listing.
//   - GET    /birthdays  : Birthdays in the coming week.
//   - GET    /{id}       : One contact.
//   - POST   /           : Create.
//   - PUT    /{id}       : Full replace.
//   - PATCH  /{id}       : Partial update.
//   - DELETE /{id}       : Delete and return the removed contact.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/birthdays", handler.birthdays)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.replace)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type contactRequest struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Birthday       string  `json:"birthday"`
	AdditionalInfo *string `json:"additional_info"`
}

type patchRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Birthday       *string `json:"birthday"`
	AdditionalInfo *string `json:"additional_info"`
}

/*
GET /api/contacts.

Description: Lists the caller's contacts, optionally filtered by "q".

Request:
  - Query: skip, limit, q (≤ 50 characters)

Response:
  - 200: []Contact with pagination metadata
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query().Get(FieldQuery)
	if err := (&validate.Validator{}).MaxLen(FieldQuery, query, QueryMaxLength).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	found, total, err := handler.contactService.List(request.Context(), account.ID, Filter{
		Skip:  params.Skip,
		Limit: params.Limit,
		Query: query,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, nonNil(found), pagination.NewMeta(params, total))
}

/*
GET /api/contacts/birthdays.

Response:
  - 200: []Contact whose birthday is within the next seven days
*/
func (handler *Handler) birthdays(writer http.ResponseWriter, request *http.Request) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.contactService.UpcomingBirthdays(request.Context(), account.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, nonNil(found))
}

/*
GET /api/contacts/{id}.

Response:
  - 200: Contact
  - 404: ErrNotFound
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	account, id, ok := handler.target(writer, request)
	if !ok {
		return
	}

	contact, err := handler.contactService.Get(request.Context(), account.ID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
POST /api/contacts.

Request:
  - Body: contactRequest

Response:
  - 201: Contact
  - 400: Validation failure
  - 409: Duplicate email or phone
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	input, err := decodeInput(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Create(request.Context(), account.ID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, contact)
}

/*
PUT /api/contacts/{id}.

Request:
  - Body: contactRequest (every field required)

Response:
  - 200: Contact
  - 404: ErrNotFound
*/
func (handler *Handler) replace(writer http.ResponseWriter, request *http.Request) {
	account, id, ok := handler.target(writer, request)
	if !ok {
		return
	}

	input, err := decodeInput(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Replace(request.Context(), account.ID, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
PATCH /api/contacts/{id}.

Request:
  - Body: patchRequest (any subset of fields)

Response:
  - 200: Contact
  - 404: ErrNotFound
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	account, id, ok := handler.target(writer, request)
	if !ok {
		return
	}

	var body patchRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch, err := body.toPatch()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Update(request.Context(), account.ID, id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
DELETE /api/contacts/{id}.

Response:
  - 200: The deleted Contact
  - 404: ErrNotFound
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	account, id, ok := handler.target(writer, request)
	if !ok {
		return
	}

	contact, err := handler.contactService.Delete(request.Context(), account.ID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

// # Helpers

// target resolves the caller and the {id} path parameter, answering on failure.
func (handler *Handler) target(writer http.ResponseWriter, request *http.Request) (*auth.Account, int64, bool) {
	account, err := auth.AccountFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return nil, 0, false
	}

	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return nil, 0, false
	}

	return account, id, true
}

func decodeInput(request *http.Request) (Input, error) {
	var body contactRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		return Input{}, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, body.FirstName).
		MinLen(FieldFirstName, body.FirstName, NameMinLength).
		MaxLen(FieldFirstName, body.FirstName, NameMaxLength).
		Required(FieldLastName, body.LastName).
		MinLen(FieldLastName, body.LastName, NameMinLength).
		MaxLen(FieldLastName, body.LastName, NameMaxLength).
		Required(FieldEmail, body.Email).
		MaxLen(FieldEmail, body.Email, EmailMaxLength).
		Email(FieldEmail, body.Email).
		Required(FieldPhone, body.Phone).
		MaxLen(FieldPhone, body.Phone, PhoneMaxLength).
		Required(FieldBirthday, body.Birthday).
		Date(FieldBirthday, body.Birthday)

	if body.AdditionalInfo != nil {
		validator.MaxLen(FieldAdditionalInfo, *body.AdditionalInfo, AdditionalInfoMaxLength)
	}

	if err := validator.Err(); err != nil {
		return Input{}, err
	}

	birthday, err := ParseDate(body.Birthday)
	if err != nil {
		return Input{}, validate.RequiredError(FieldBirthday, "Must be a date formatted as YYYY-MM-DD")
	}

	return Input{
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Email:          body.Email,
		Phone:          body.Phone,
		Birthday:       birthday,
		AdditionalInfo: body.AdditionalInfo,
	}, nil
}

func (body patchRequest) toPatch() (Patch, error) {
	validator := &validate.Validator{}

	if body.FirstName != nil {
		validator.MinLen(FieldFirstName, *body.FirstName, NameMinLength).
			MaxLen(FieldFirstName, *body.FirstName, NameMaxLength)
	}
	if body.LastName != nil {
		validator.MinLen(FieldLastName, *body.LastName, NameMinLength).
			MaxLen(FieldLastName, *body.LastName, NameMaxLength)
	}
	if body.Email != nil {
		validator.MaxLen(FieldEmail, *body.Email, EmailMaxLength).
			Email(FieldEmail, *body.Email)
	}
	if body.Phone != nil {
		validator.Required(FieldPhone, *body.Phone).
			MaxLen(FieldPhone, *body.Phone, PhoneMaxLength)
	}
	if body.Birthday != nil {
		validator.Date(FieldBirthday, *body.Birthday)
	}
	if body.AdditionalInfo != nil {
		validator.MaxLen(FieldAdditionalInfo, *body.AdditionalInfo, AdditionalInfoMaxLength)
	}

	if err := validator.Err(); err != nil {
		return Patch{}, err
	}

	patch := Patch{
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Email:          body.Email,
		Phone:          body.Phone,
		AdditionalInfo: body.AdditionalInfo,
	}

	if body.Birthday != nil {
		birthday, err := ParseDate(*body.Birthday)
		if err != nil {
			return Patch{}, validate.RequiredError(FieldBirthday, "Must be a date formatted as YYYY-MM-DD")
		}
		patch.Birthday = &birthday
	}

	return patch, nil
}

func nonNil(found []Contact) []Contact {
	if found == nil {
		return []Contact{}
	}
	return found
}
