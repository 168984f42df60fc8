// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail carries transactional email from the API to the recipient.

The API never talks to an SMTP server. It hands a [Message] to a [Mailer]:
in production that is the AMQP [Publisher], which enqueues a persistent job
on a durable queue; the mail worker ([Consumer]) renders and delivers it.
Without a broker, [LogMailer] just records the job.
*/
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind selects the template used for a message.
type Kind string

const (
	// KindVerifyEmail asks the recipient to confirm their address.
	KindVerifyEmail Kind = "verify_email"

	// KindResetPassword carries a password reset link.
	KindResetPassword Kind = "reset_password"
)

// ErrMalformed marks a job that can never be delivered.
var ErrMalformed = errors.New("mail: malformed message")

// Message is one outbound email job.
type Message struct {
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Username  string    `json:"username"`
	BaseURL   string    `json:"base_url"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Mailer accepts messages for delivery.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}

// Validate reports whether the message carries everything its template needs.
func (message Message) Validate() error {
	switch message.Kind {
	case KindVerifyEmail, KindResetPassword:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, message.Kind)
	}

	if message.To == "" || !strings.Contains(message.To, "@") {
		return fmt.Errorf("%w: invalid recipient %q", ErrMalformed, message.To)
	}

	if message.Token == "" {
		return fmt.Errorf("%w: missing token", ErrMalformed)
	}

	if _, err := url.ParseRequestURI(message.BaseURL); err != nil {
		return fmt.Errorf("%w: invalid base url: %w", ErrMalformed, err)
	}

	return nil
}

// Link returns the URL the recipient should open.
func (message Message) Link() string {
	base := strings.TrimRight(message.BaseURL, "/")

	switch message.Kind {
	case KindResetPassword:
		return base + "/api/auth/password-reset?token=" + url.QueryEscape(message.Token)
	default:
		return base + "/api/auth/confirmed_email/" + url.PathEscape(message.Token)
	}
}
