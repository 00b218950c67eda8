package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_HTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			if got := c.kind.HTTPStatus(); got != c.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestInternal_PreservesTypedError(t *testing.T) {
	sentinel := New(KindUnauthorized, "invalid credentials")
	wrapped := fmt.Errorf("login: %w", sentinel)

	got := Internal(wrapped)
	if !errors.Is(got, sentinel) {
		t.Fatalf("Internal re-wrapped a typed error: %v", got)
	}
	if KindOf(got) != KindUnauthorized {
		t.Errorf("KindOf = %v, want unauthorized", KindOf(got))
	}
}

func TestInternal_WrapsPlainError(t *testing.T) {
	cause := errors.New("connection refused")
	got := Internal(cause)
	if KindOf(got) != KindInternal {
		t.Fatalf("KindOf = %v, want internal", KindOf(got))
	}
	if !errors.Is(got, cause) {
		t.Error("Internal should unwrap to its cause")
	}
	if As(got).Message != "internal server error" {
		t.Errorf("Message = %q", As(got).Message)
	}
}

func TestInternal_Nil(t *testing.T) {
	if Internal(nil) != nil {
		t.Error("Internal(nil) should be nil")
	}
}

func TestAs_UnknownError(t *testing.T) {
	e := As(errors.New("boom"))
	if e.Kind != KindInternal || e.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("As(plain) = %+v", e)
	}
}
