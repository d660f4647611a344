package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/featurereg/pkg/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"orphanCount": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"orphanCount":3},"error":null}`, rec.Body.String())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", pkgerrors.NewValidationError("confirm", "", "token required"), http.StatusBadRequest, CodeValidation},
		{"not found", pkgerrors.NewNotFoundError("feature record", "r1"), http.StatusNotFound, CodeNotFound},
		{"mutation of missing record", pkgerrors.WrapMutation("archive", "r1", pkgerrors.NewNotFoundError("feature record", "r1")), http.StatusNotFound, CodeNotFound},
		{"illegal transition", pkgerrors.WrapMutation("keep", "r1", pkgerrors.NewTransitionError("archived", "kept")), http.StatusConflict, CodeConflict},
		{"refused record", pkgerrors.WrapMutation("archive", "r0", pkgerrors.NewValidationError("id", "r0", "declared in the registry")), http.StatusConflict, CodeConflict},
		{"fetch", pkgerrors.NewDataFetchError("store", errors.New("refused")), http.StatusServiceUnavailable, CodeUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, errors.New("password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
