package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamline/backend/internal/platform/apperr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "created", map[string]string{"id": "u1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := decodeEnvelope(t, rec)
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, map[string]any{"id": "u1"}, body["data"])
}

func TestErrors_TypedKinds(t *testing.T) {
	write := Errors(slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.New(apperr.KindUnauthorized, "nope"), http.StatusUnauthorized},
		{apperr.New(apperr.KindNotFound, "gone"), http.StatusNotFound},
		{apperr.New(apperr.KindConflict, "dup"), http.StatusConflict},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		write(rec, httptest.NewRequest(http.MethodGet, "/", nil), c.err)

		assert.Equal(t, c.status, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, c.err.(*apperr.Error).Message, body["message"])
		assert.NotContains(t, body, "detail")
	}
}

func TestErrors_InternalDetailOnlyOutsideProduction(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	Errors(discard, false)(rec, httptest.NewRequest(http.MethodGet, "/", nil), cause)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "internal server error", body["message"])
	assert.Equal(t, cause.Error(), body["detail"])

	rec = httptest.NewRecorder()
	Errors(discard, true)(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperr.Internal(cause))
	body = decodeEnvelope(t, rec)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, body, "detail")
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
		require.NoError(t, Decode(httptest.NewRecorder(), r, &p))
		assert.Equal(t, "a", p.Name)
	})
	t.Run("empty body", func(t *testing.T) {
		var p payload
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		require.NoError(t, Decode(httptest.NewRecorder(), r, &p))
		assert.Empty(t, p.Name)
	})
	for name, raw := range map[string]string{
		"unknown field": `{"name":"a","extra":1}`,
		"trailing data": `{"name":"a"}{}`,
		"not json":      `name=a`,
	} {
		t.Run(name, func(t *testing.T) {
			var p payload
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
			err := Decode(httptest.NewRecorder(), r, &p)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}
