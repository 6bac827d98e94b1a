package errs

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := ErrRecordNotFound.WrapMsg("", "id", "42")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatal("wrapped not-found lost its code")
	}
	if errors.Is(err, ErrArgs) {
		t.Fatal("matched a different code")
	}
	if !strings.Contains(err.Error(), "id=42") {
		t.Fatalf("detail = %q", err.Error())
	}
}

func TestTokenCodesAreInvalid(t *testing.T) {
	if !errors.Is(ErrTokenExpired.Wrap(), ErrTokenInvalid) {
		t.Fatal("expired should count as invalid")
	}
	if !errors.Is(ErrTokenRevoked.Wrap(), ErrTokenInvalid) {
		t.Fatal("revoked should count as invalid")
	}
	if errors.Is(ErrTokenInvalid.Wrap(), ErrTokenExpired) {
		t.Fatal("relation is one way")
	}
}

func TestCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		status int
	}{
		{ErrArgs.Wrap(), ArgsError, http.StatusBadRequest},
		{ErrNoPermission.Wrap(), NoPermissionError, http.StatusForbidden},
		{ErrNotLoggedIn.Wrap(), NotLoggedInError, http.StatusUnauthorized},
		{ErrTokenExpired.Wrap(), TokenExpiredError, http.StatusUnauthorized},
		{ErrRecordNotFound.Wrap(), RecordNotFoundError, http.StatusNotFound},
		{ErrTransport.Wrap(), TransportError, http.StatusBadGateway},
		{errors.New("plain"), ServerInternalError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %d, want %d", tc.err, got, tc.code)
		}
		if got := HTTPStatus(Code(tc.err)); got != tc.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
	if Code(nil) != 0 {
		t.Fatal("nil error has a code")
	}
}

func TestErrPanic(t *testing.T) {
	if ErrPanic(nil) != nil {
		t.Fatal("nil panic value")
	}
	err := ErrPanic("bad")
	if Code(err) != ServerInternalError || !strings.Contains(AsCode(err).Detail, "bad") {
		t.Fatalf("panic err = %v", err)
	}
}
