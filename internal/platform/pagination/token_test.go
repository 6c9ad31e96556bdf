package pagination

import (
	"errors"
	"testing"
)

func TestEncodeDecodeTokenRoundTrip(t *testing.T) {
	token, err := EncodeToken(AfterID("ord_01HZX"))
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if token == "ord_01HZX" {
		t.Fatal("token must not expose the raw document id")
	}

	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if len(cursor.StartAfter) != 1 {
		t.Fatalf("expected one cursor value, got %d", len(cursor.StartAfter))
	}
	if got, ok := cursor.StartAfter[0].(string); !ok || got != "ord_01HZX" {
		t.Fatalf("unexpected cursor value %v", cursor.StartAfter[0])
	}
}

func TestEncodeTokenEmptyCursor(t *testing.T) {
	token, err := EncodeToken(Cursor{})
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
}

func TestDecodeTokenBlank(t *testing.T) {
	cursor, err := DecodeToken("   ")
	if err != nil {
		t.Fatalf("decode blank token: %v", err)
	}
	if len(cursor.StartAfter) != 0 {
		t.Fatalf("expected empty cursor, got %v", cursor.StartAfter)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"not base64!!", "bm90IGpzb24", "e30"} {
		if _, err := DecodeToken(token); !errors.Is(err, ErrInvalidPageToken) {
			t.Fatalf("token %q: expected ErrInvalidPageToken, got %v", token, err)
		}
	}
}
