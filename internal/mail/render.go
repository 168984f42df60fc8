// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

var subjects = map[Kind]string{
	KindVerifyEmail:   "Confirm your email",
	KindResetPassword: "Reset your password",
}

// Rendered is a message ready for a transport.
type Rendered struct {
	Subject string
	HTML    string
}

// Render applies the template selected by the message kind.
func Render(message Message) (Rendered, error) {
	if err := message.Validate(); err != nil {
		return Rendered{}, err
	}

	var body bytes.Buffer
	data := struct {
		Username string
		Link     string
	}{
		Username: message.Username,
		Link:     message.Link(),
	}

	if err := templates.ExecuteTemplate(&body, string(message.Kind)+".html", data); err != nil {
		return Rendered{}, fmt.Errorf("mail: render %s: %w", message.Kind, err)
	}

	return Rendered{Subject: subjects[message.Kind], HTML: body.String()}, nil
}
