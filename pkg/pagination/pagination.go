// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// Lists are navigated with offset-style "skip" and "limit" query parameters.
// The resulting metadata is delivered in the API response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of items returned if not specified.
	DefaultLimit = 10
	// MaxLimit is the upper bound for items per request to prevent system abuse.
	MaxLimit = 100
)

// Params holds the parsed skip and limit from a request's query string.
type Params struct {
	Skip  int
	Limit int
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// NewMeta constructs pagination metadata for a response.
func NewMeta(params Params, total int) Meta {
	return Meta{
		Skip:  params.Skip,
		Limit: params.Limit,
		Total: total,
	}
}

// FromRequest parses "skip" and "limit" query parameters from an HTTP request.
//
// # Clamping
//
// Negative skips become 0. Invalid, non-positive, or excessive limits fall back
// to [DefaultLimit] or are capped at [MaxLimit].
func FromRequest(r *http.Request) Params {
	skip := parseIntParam(r, "skip", 0)
	limit := parseIntParam(r, "limit", DefaultLimit)

	if skip < 0 {
		skip = 0
	}

	if limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Skip: skip, Limit: limit}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
