package store

import (
	"errors"
	"testing"

	"HealthSeva/tools/errs"
)

func TestDecodeSession(t *testing.T) {
	s, err := decodeSession([]byte(`{"user_id":"u1","role":"PROVIDER"}`))
	if err != nil || s.UserID != "u1" {
		t.Fatalf("decode = %+v, %v", s, err)
	}

	for _, raw := range []string{"", "{", `{"user_id":7}`} {
		s, err := decodeSession([]byte(raw))
		if !errors.Is(err, errs.ErrTokenInvalid) || s != nil {
			t.Fatalf("%q: got %+v, %v", raw, s, err)
		}
	}
}
