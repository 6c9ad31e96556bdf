// Package pagination implements the opaque page token codec shared by the
// Firestore repositories. Tokens wrap cursor values so list responses never
// expose raw document IDs.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPageToken signals a token that was not produced by EncodeToken.
var ErrInvalidPageToken = errors.New("pagination: invalid page token")

// Cursor carries the Firestore StartAfter values for the next page.
type Cursor struct {
	StartAfter []any `json:"startAfter,omitempty"`
}

// AfterID builds a cursor that resumes a document-ID ordered query after id.
func AfterID(id string) Cursor {
	return Cursor{StartAfter: []any{strings.TrimSpace(id)}}
}

// EncodeToken serialises the cursor into a base64 URL-safe page token.
// An empty cursor encodes to the empty string.
func EncodeToken(cursor Cursor) (string, error) {
	if len(cursor.StartAfter) == 0 {
		return "", nil
	}
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses a page token produced by EncodeToken back into a cursor.
// A blank token yields an empty cursor.
func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if len(cursor.StartAfter) == 0 {
		return Cursor{}, fmt.Errorf("%w: empty cursor", ErrInvalidPageToken)
	}
	return cursor, nil
}
