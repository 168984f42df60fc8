// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, JWT
// signing) from the domain logic. It acts as an infrastructure service
// injected into the auth core through narrow interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope tags a token with the purpose it was minted for.
type Scope string

const (
	// ScopeAccess marks short-lived bearer tokens.
	ScopeAccess Scope = "access"

	// ScopeRefresh marks tokens exchanged for new access tokens.
	ScopeRefresh Scope = "refresh"

	// ScopeNone is used by email verification and password reset tokens.
	ScopeNone Scope = ""
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or badly signed.
	ErrInvalidToken = errors.New("sec: invalid token")

	// ErrUnsupportedAlgorithm is returned for signing methods other than HS256/HS384/HS512.
	ErrUnsupportedAlgorithm = errors.New("sec: unsupported signing algorithm")
)

// Claims is the payload carried by every token the service issues.
//
// Subject holds the username for access/refresh tokens and the email address
// for verification and reset tokens.
type Claims struct {
	jwt.RegisteredClaims

	Scope Scope `json:"scope,omitempty"`
}

// TokenCodec signs and verifies HMAC JWTs with a process-wide secret.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenCodec creates a codec for the given secret and HMAC algorithm name.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("sec: jwt secret must not be empty")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return &TokenCodec{
		secret: []byte(secret),
		method: method,
	}, nil
}

// Issue signs a new token for subject with the given scope and lifetime.
//
// Every token gets a random ID, so two tokens issued in the same second for
// the same subject never compare equal.
func (codec *TokenCodec) Issue(subject string, scope Scope, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Scope: scope,
	}

	token := jwt.NewWithClaims(codec.method, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Decode verifies the signature, algorithm and expiry of tokenString.
//
// Any failure is reported as [ErrInvalidToken]; the parser's reason is kept in
// the chain for logging. An expiry claim is mandatory.
func (codec *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return codec.secret, nil
		},
		jwt.WithValidMethods([]string{codec.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
