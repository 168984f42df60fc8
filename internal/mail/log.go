// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"log/slog"

	"github.com/taibuivan/contactbook/internal/platform/ctxutil"
)

// LogMailer records messages in the request log instead of sending them.
//
// Used when no broker is configured, typically in local development where the
// link in the log line is enough to finish a verification flow.
type LogMailer struct{}

// Send implements [Mailer].
func (LogMailer) Send(ctx context.Context, message Message) error {
	if err := message.Validate(); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "mail_not_sent_no_broker",
		slog.String("kind", string(message.Kind)),
		slog.String("to", message.To),
		slog.String("link", message.Link()),
	)
	return nil
}
