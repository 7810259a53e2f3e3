package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	RespondWithJSON(recorder, req, http.StatusCreated, map[string]string{"status": "sealed"})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "sealed", body["status"])
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	t.Run("includes the trace ID when set", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(SetTraceID(req.Context()))
		recorder := httptest.NewRecorder()

		RespondWithError(recorder, req, http.StatusNotFound, "Not found")

		assert.Equal(t, http.StatusNotFound, recorder.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "Not found", body.Error)
		assert.Equal(t, GetTraceID(req.Context()), body.TraceID)
	})

	t.Run("omits the trace ID when absent", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		recorder := httptest.NewRecorder()

		RespondWithError(recorder, req, http.StatusBadRequest, "Invalid request")

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		_, present := body["trace_id"]
		assert.False(t, present)
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	RespondWithErrorAndLog(recorder, req, http.StatusInternalServerError,
		"Something went wrong", errors.New("pg: password=secret authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Something went wrong", body.Error)
	assert.NotContains(t, recorder.Body.String(), "secret")
}
