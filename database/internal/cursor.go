// Package internal holds helpers shared by the audit-log backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shareustc/shareustc"
)

// Cursor is the position of the last row of a page, ordered by (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor returns an opaque, URL-safe cursor.
func EncodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor made by EncodeCursor. The empty string decodes
// to the zero Cursor, meaning the first page.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}

	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", shareustc.ErrValidation)
	}

	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format: %w", shareustc.ErrValidation)
	}
	if id == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty id: %w", shareustc.ErrValidation)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", shareustc.ErrValidation)
	}

	return Cursor{CreatedAt: createdAt, ID: id}, nil
}
