// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/contactbook/internal/platform/apperr"
	"github.com/taibuivan/contactbook/internal/platform/constants"
	"github.com/taibuivan/contactbook/internal/platform/respond"
)

// ErrDatabaseUnavailable is answered by /api/healthchecker when PostgreSQL cannot be reached.
var ErrDatabaseUnavailable = apperr.New(http.StatusInternalServerError, "INTERNAL_ERROR", "Error connecting to the database")

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func(ctx context.Context) error

	// CheckCache pings the Redis client.
	CheckCache func(ctx context.Context) error
}

// HealthHandlers groups the probe endpoints.
type HealthHandlers struct {
	Liveness      http.HandlerFunc
	Readiness     http.HandlerFunc
	HealthChecker http.HandlerFunc
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health, /ready and /api/healthchecker handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) HealthHandlers {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return HealthHandlers{
		Liveness:      handler.liveness,
		Readiness:     handler.readiness,
		HealthChecker: handler.healthChecker,
	}
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	results := make([]checkResult, 0, 2)
	isSystemReady := true

	for _, dependency := range []struct {
		name  string
		check func(ctx context.Context) error
	}{
		{"postgres", handler.dependencies.CheckDatabase},
		{"redis", handler.dependencies.CheckCache},
	} {
		if dependency.check == nil {
			continue
		}

		result := checkResult{Name: dependency.name, IsOK: true}
		if err := dependency.check(ctx); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.ErrorContext(ctx, "readiness_check_failed",
				slog.String("dependency", dependency.name),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}

/*
healthChecker handles GET /api/healthchecker.

Description: Runs a round trip against PostgreSQL and answers with a greeting.
Existing clients poll this path instead of /ready.

Response:
  - 200: {"message": "Welcome to the contactbook API!"}
  - 500: ErrDatabaseUnavailable
*/
func (handler *healthHandler) healthChecker(writer http.ResponseWriter, request *http.Request) {
	if handler.dependencies.CheckDatabase != nil {
		if err := handler.dependencies.CheckDatabase(request.Context()); err != nil {
			handler.logger.ErrorContext(request.Context(), "healthchecker_database_failed", slog.Any("error", err))
			respond.Error(writer, request, ErrDatabaseUnavailable)
			return
		}
	}

	respond.JSON(writer, http.StatusOK, map[string]string{constants.FieldMessage: "Welcome to the contactbook API!"})
}
