package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
	"github.com/ovasylenko/contacthub/pkg/validator"
)

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, Response{Data: map[string]string{"id": "abc"}})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"id":"abc"`)
}

func TestWriteError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	WriteError(rr, req, apperrors.NotFound("contact", "c-1"), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "c-1")
}

func TestWriteError_WrappedSentinel(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	WriteError(rr, req, fmt.Errorf("get contact: %w", apperrors.ErrNotFound), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	WriteError(rr, req, errors.New("boom"), nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// Internal details must not leak to the client.
	assert.NotContains(t, resp.Error.Message, "boom")
}

func TestWriteValidationError_FieldDetails(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(form{})
	require.Error(t, err)

	rr := httptest.NewRecorder()
	WriteValidationError(rr, err)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["Email"])
}

func TestWriteValidationError_PlainError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteValidationError(rr, errors.New("unreadable body"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestParseUUID(t *testing.T) {
	rr := httptest.NewRecorder()
	id, ok := ParseUUID(rr, "7b1e9a40-53c2-4f7f-b9a1-8d2e6f0a3333")
	assert.True(t, ok)
	assert.Equal(t, "7b1e9a40-53c2-4f7f-b9a1-8d2e6f0a3333", id.String())

	rr = httptest.NewRecorder()
	_, ok = ParseUUID(rr, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_PARAMETER")
}
