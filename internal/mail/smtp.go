// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/contactbook/internal/platform/config"
)

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport delivers rendered messages through an SMTP relay.
type SMTPTransport struct {
	cfg  config.SMTPConfig
	send sendFunc
}

// NewSMTPTransport creates a transport for the configured relay.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, send: smtp.SendMail}
}

// Deliver renders and sends message. The context only guards the start of the
// exchange; net/smtp has no cancellation once the session is open.
func (transport *SMTPTransport) Deliver(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rendered, err := Render(message)
	if err != nil {
		return err
	}

	raw, err := transport.compose(message.To, rendered)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if transport.cfg.Username != "" {
		auth = smtp.PlainAuth("", transport.cfg.Username, transport.cfg.Password, transport.cfg.Host)
	}

	addr := net.JoinHostPort(transport.cfg.Host, strconv.Itoa(transport.cfg.Port))
	if err := transport.send(addr, auth, transport.cfg.From, []string{message.To}, raw); err != nil {
		return fmt.Errorf("mail: smtp send to %s: %w", addr, err)
	}

	return nil
}

// compose builds an RFC 5322 message with a single HTML part.
func (transport *SMTPTransport) compose(to string, rendered Rendered) ([]byte, error) {
	recipient, err := netmail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	from := netmail.Address{Name: transport.cfg.FromName, Address: transport.cfg.From}

	var buffer bytes.Buffer
	headers := [][2]string{
		{"From", from.String()},
		{"To", recipient.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", rendered.Subject)},
		{"Date", time.Now().UTC().Format(time.RFC1123Z)},
		{"Message-ID", "<" + uuid.NewString() + "@" + transport.cfg.Host + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
		{"Content-Transfer-Encoding", "8bit"},
	}
	for _, header := range headers {
		fmt.Fprintf(&buffer, "%s: %s\r\n", header[0], header[1])
	}
	buffer.WriteString("\r\n")
	buffer.WriteString(rendered.HTML)

	return buffer.Bytes(), nil
}
