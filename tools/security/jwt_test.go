package security

import (
	"errors"
	"testing"
	"time"

	"HealthSeva/tools/errs"
)

func TestGenerateAndVerify(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))
	opts.Issuer = "healthseva"
	tok, hash, exp, err := Generate(opts, "user-1", map[string]any{"email": "a@b.c", "sub": "forged"})
	if err != nil {
		t.Fatal(err)
	}
	if hash != HashToken(tok) || time.Until(exp) <= 0 {
		t.Fatalf("hash=%s exp=%v", hash, exp)
	}

	claims, err := Verify(opts, tok, hash)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject() != "user-1" || claims.Claim("email") != "a@b.c" || claims.Claim("missing") != "" {
		t.Fatalf("claims = %v", claims.MapClaims)
	}
}

func TestVerifyRejects(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))
	tok, _, _, _ := Generate(opts, "u", nil)

	if _, err := Verify(DefaultOptions([]byte("other")), tok, ""); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("wrong key = %v", err)
	}
	if _, err := Verify(opts, tok, "sha256:nope"); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("hash mismatch = %v", err)
	}

	short := opts
	short.TTL = time.Second
	old, _, _, _ := Generate(short, "u", nil)
	time.Sleep(2100 * time.Millisecond)
	if _, err := Verify(opts, old, ""); !errors.Is(err, errs.ErrTokenExpired) {
		t.Fatalf("expired = %v", err)
	}
}

func TestUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("k"))
	opts.Alg = "RS256"
	if _, _, _, err := Generate(opts, "u", nil); err == nil {
		t.Fatal("RS256 accepted")
	}
}
