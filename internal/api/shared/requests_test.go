package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Email string `json:"email" validate:"required,email"`
}

type selfValidating struct {
	ok bool
}

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes a valid body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/",
			bytes.NewReader([]byte(`{"email":"a@example.com"}`)))

		var target decodeTarget
		require.NoError(t, DecodeJSON(req, &target))
		assert.Equal(t, "a@example.com", target.Email)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))

		var target decodeTarget
		assert.Error(t, DecodeJSON(req, &target))
	})
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	t.Run("tag validation", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidateRequest(decodeTarget{Email: "not-an-email"}))
		assert.NoError(t, ValidateRequest(decodeTarget{Email: "a@example.com"}))
	})

	t.Run("custom Validate takes precedence", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidateRequest(selfValidating{ok: false}))
		assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	})
}
