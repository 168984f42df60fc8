// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contacts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/contactbook/internal/contacts"
	"github.com/taibuivan/contactbook/internal/platform/middleware"
	"github.com/taibuivan/contactbook/internal/platform/sec"
	"github.com/taibuivan/contactbook/internal/users/auth"
)

type tokenResolver map[string]*auth.Account

func (r tokenResolver) ResolvePrincipal(_ context.Context, token string) (sec.Principal, error) {
	account, ok := r[token]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return account, nil
}

var (
	alice = &auth.Account{ID: 1, Username: "alice", Email: "alice@example.com", Role: sec.RoleUser, Confirmed: true}
	bob   = &auth.Account{ID: 2, Username: "bob", Email: "bob@example.com", Role: sec.RoleUser, Confirmed: true}
)

type harness struct {
	router http.Handler
	store  *memoryStore
}

func newHarness() *harness {
	store := newMemoryStore()
	service := contacts.NewService(store, contacts.WithClock(fixedClock(2026, time.December, 28)))

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenResolver{"alice-token": alice, "bob-token": bob}))
	router.Mount("/api/contacts", contacts.NewHandler(service).Routes())

	return &harness{router: router, store: store}
}

func (h *harness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

type contactEnvelope struct {
	Data contacts.Contact `json:"data"`
}

type listEnvelope struct {
	Data []contacts.Contact `json:"data"`
	Meta struct {
		Skip  int `json:"skip"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
}

const janeBody = `{
	"first_name": "Jane",
	"last_name": "Doe",
	"email": "jane@example.com",
	"phone": "+84 901 234 567",
	"birthday": "1990-12-30"
}`

/*
TestHandler_RequiresAuthentication rejects anonymous callers.
*/
func TestHandler_RequiresAuthentication(t *testing.T) {
	h := newHarness()

	recorder := h.do(t, http.MethodGet, "/api/contacts/", "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
}

/*
TestHandler_CreateValidation covers the payload rules of POST and PUT.
*/
func TestHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", janeBody, http.StatusCreated},
		{"malformed_json", `{"first_name":`, http.StatusBadRequest},
		{"short_first_name", `{"first_name":"J","last_name":"Doe","email":"j@example.com","phone":"1","birthday":"1990-01-01"}`, http.StatusBadRequest},
		{"missing_last_name", `{"first_name":"Jane","email":"j@example.com","phone":"1","birthday":"1990-01-01"}`, http.StatusBadRequest},
		{"invalid_email", `{"first_name":"Jane","last_name":"Doe","email":"nope","phone":"1","birthday":"1990-01-01"}`, http.StatusBadRequest},
		{"invalid_birthday", `{"first_name":"Jane","last_name":"Doe","email":"j@example.com","phone":"1","birthday":"01/01/1990"}`, http.StatusBadRequest},
		{"long_additional_info", `{"first_name":"Jane","last_name":"Doe","email":"j@example.com","phone":"1","birthday":"1990-01-01","additional_info":"` + strings.Repeat("x", 251) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			recorder := h.do(t, http.MethodPost, "/api/contacts/", "alice-token", tt.body)
			assert.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
		})
	}
}

/*
TestHandler_Lifecycle creates, reads, updates and deletes one contact.
*/
func TestHandler_Lifecycle(t *testing.T) {
	h := newHarness()

	recorder := h.do(t, http.MethodPost, "/api/contacts/", "alice-token", janeBody)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created contactEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "Jane", created.Data.FirstName)
	assert.Equal(t, "1990-12-30", created.Data.Birthday.String())
	assert.Equal(t, alice.ID, created.Data.UserID)

	target := "/api/contacts/" + itoa(created.Data.ID)

	t.Run("duplicate_email", func(t *testing.T) {
		recorder := h.do(t, http.MethodPost, "/api/contacts/", "alice-token", janeBody)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("get", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, target, "alice-token", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("other_owner", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, target, "bob-token", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("invalid_id", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/abc", "alice-token", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("patch", func(t *testing.T) {
		recorder := h.do(t, http.MethodPatch, target, "alice-token", `{"last_name":"Smith","additional_info":"neighbor"}`)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var updated contactEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &updated))
		assert.Equal(t, "Smith", updated.Data.LastName)
		assert.Equal(t, "Jane", updated.Data.FirstName)
		require.NotNil(t, updated.Data.AdditionalInfo)
		assert.Equal(t, "neighbor", *updated.Data.AdditionalInfo)
	})

	t.Run("patch_invalid", func(t *testing.T) {
		recorder := h.do(t, http.MethodPatch, target, "alice-token", `{"birthday":"yesterday"}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("put_requires_every_field", func(t *testing.T) {
		recorder := h.do(t, http.MethodPut, target, "alice-token", `{"first_name":"Joan"}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("put", func(t *testing.T) {
		body := strings.Replace(janeBody, `"Jane"`, `"Joan"`, 1)
		recorder := h.do(t, http.MethodPut, target, "alice-token", body)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var replaced contactEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &replaced))
		assert.Equal(t, "Joan", replaced.Data.FirstName)
		assert.Equal(t, "Doe", replaced.Data.LastName)
	})

	t.Run("birthdays", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/birthdays", "alice-token", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var listed listEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
		require.Len(t, listed.Data, 1)
		assert.Equal(t, "Joan", listed.Data[0].FirstName)
	})

	t.Run("delete", func(t *testing.T) {
		recorder := h.do(t, http.MethodDelete, target, "alice-token", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var deleted contactEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &deleted))
		assert.Equal(t, created.Data.ID, deleted.Data.ID)

		recorder = h.do(t, http.MethodDelete, target, "alice-token", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

/*
TestHandler_List paginates and searches the caller's contacts.
*/
func TestHandler_List(t *testing.T) {
	h := newHarness()

	for _, body := range []string{
		`{"first_name":"Alice","last_name":"Anders","email":"a@example.com","phone":"1","birthday":"1990-01-01"}`,
		`{"first_name":"Bruno","last_name":"Brown","email":"b@example.com","phone":"2","birthday":"1990-01-02"}`,
		`{"first_name":"Chloe","last_name":"Carter","email":"c@example.com","phone":"3","birthday":"1990-01-03"}`,
	} {
		require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/contacts/", "alice-token", body).Code)
	}

	t.Run("page", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/?skip=1&limit=1", "alice-token", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var listed listEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
		require.Len(t, listed.Data, 1)
		assert.Equal(t, "Bruno", listed.Data[0].FirstName)
		assert.Equal(t, 1, listed.Meta.Skip)
		assert.Equal(t, 1, listed.Meta.Limit)
		assert.Equal(t, 3, listed.Meta.Total)
	})

	t.Run("search", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/?q=carter", "alice-token", "")
		require.Equal(t, http.StatusOK, recorder.Code)

		var listed listEnvelope
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
		require.Len(t, listed.Data, 1)
		assert.Equal(t, "Chloe", listed.Data[0].FirstName)
	})

	t.Run("query_too_long", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/?q="+strings.Repeat("a", 51), "alice-token", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("empty_for_other_owner", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/contacts/", "bob-token", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"data":[]`)
	})
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
