package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/interfaces/http/dto"
	"github.com/goodsdist/backend/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetTenantID(t *testing.T) {
	t.Run("falls back to default tenant", func(t *testing.T) {
		c, _ := newTestContext()
		assert.Equal(t, middleware.DefaultTenantID, getTenantID(c))
	})

	t.Run("uses tenant set by middleware", func(t *testing.T) {
		c, _ := newTestContext()
		id := uuid.New()
		c.Set(middleware.TenantIDKey, id)
		assert.Equal(t, id, getTenantID(c))
	})
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"3", 3, true},
		{"-1", 0, false},
		{"two", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, _ := newTestContext()
			c.Params = gin.Params{{Key: "index", Value: tt.raw}}
			got, ok := parseIndex(c, "index")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext()
	h.Created(c, gin.H{"id": "x"})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext()
	h.NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"wrapped domain error", fmt.Errorf("saving: %w", packaging.ErrEmptyStructure), http.StatusBadRequest, dto.ErrCodeInvalidLayers},
		{"stock out of range", packaging.ErrStockOutOfRange, http.StatusUnprocessableEntity, dto.ErrCodeStockOutOfRange},
		{"measurement layer", packaging.ErrMeasurementLayer, http.StatusUnprocessableEntity, dto.ErrCodeMeasurementLayer},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()
			c.Set("request_id", "req-7")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-7", resp.Error.RequestID)
			assert.NotContains(t, resp.Error.Message, "connection reset")
		})
	}
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}
