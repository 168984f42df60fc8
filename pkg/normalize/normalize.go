// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes user-supplied text before it is stored or
// compared, so that visually identical input maps to the same bytes.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Email trims surrounding whitespace, applies NFC and lowercases the address.
//
// Email addresses are unique per account, so every lookup and insert must go
// through this function.
func Email(value string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(value)))
}

// Username trims surrounding whitespace and applies NFC. Case is preserved.
func Username(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// Text applies NFC, trims the value and collapses internal runs of whitespace.
func Text(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}
