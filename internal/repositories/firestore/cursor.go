package firestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/aurelia-jewels/api/internal/platform/pagination"
)

// timestampCursorToken encodes the page boundary for lists sorted by a
// timestamp field descending with the document ID as tie-breaker.
func timestampCursorToken(ts time.Time, id string) (string, error) {
	return pagination.EncodeToken(pagination.Cursor{StartAfter: []any{
		ts.UTC().Format(time.RFC3339Nano),
		id,
	}})
}

// timestampCursorValues rebuilds the StartAfter values produced by
// timestampCursorToken. Timestamps round-trip through the token as RFC 3339
// strings and must be parsed back before Firestore can compare them.
func timestampCursorValues(pageToken string) ([]any, error) {
	cursor, err := pagination.DecodeToken(pageToken)
	if err != nil {
		return nil, err
	}
	if len(cursor.StartAfter) == 0 {
		return nil, nil
	}
	if len(cursor.StartAfter) != 2 {
		return nil, fmt.Errorf("%w: unexpected cursor shape", pagination.ErrInvalidPageToken)
	}
	rawTimestamp, ok := cursor.StartAfter[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cursor shape", pagination.ErrInvalidPageToken)
	}
	ts, err := time.Parse(time.RFC3339Nano, rawTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pagination.ErrInvalidPageToken, err)
	}
	id, ok := cursor.StartAfter[1].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: unexpected cursor shape", pagination.ErrInvalidPageToken)
	}
	return []any{ts, id}, nil
}
