package firestore

import (
	"errors"
	"testing"
	"time"

	"github.com/aurelia-jewels/api/internal/platform/pagination"
)

func TestTimestampCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, time.March, 14, 9, 30, 0, 123456789, time.UTC)

	token, err := timestampCursorToken(ts, "ord_01HZX")
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	values, err := timestampCursorValues(token)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected two cursor values, got %d", len(values))
	}
	gotTime, ok := values[0].(time.Time)
	if !ok || !gotTime.Equal(ts) {
		t.Fatalf("unexpected timestamp value %v", values[0])
	}
	if got, ok := values[1].(string); !ok || got != "ord_01HZX" {
		t.Fatalf("unexpected id value %v", values[1])
	}
}

func TestTimestampCursorValuesBlankToken(t *testing.T) {
	values, err := timestampCursorValues("")
	if err != nil {
		t.Fatalf("blank token: %v", err)
	}
	if values != nil {
		t.Fatalf("expected nil values, got %v", values)
	}
}

func TestTimestampCursorValuesRejectsWrongShape(t *testing.T) {
	token, err := pagination.EncodeToken(pagination.AfterID("doc_1"))
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	if _, err := timestampCursorValues(token); !errors.Is(err, pagination.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestTimestampCursorValuesRejectsBadTimestamp(t *testing.T) {
	token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{"not-a-time", "doc_1"}})
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	if _, err := timestampCursorValues(token); !errors.Is(err, pagination.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
