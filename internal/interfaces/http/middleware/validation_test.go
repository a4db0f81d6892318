package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goodsdist/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type layerInput struct {
	Quantity int64  `json:"quantity" binding:"gte=0"`
	Unit     string `json:"unit" binding:"required,max=20,unitlabel"`
}

type structureInput struct {
	Name   string       `json:"name" binding:"required,max=10"`
	Policy string       `json:"policy" binding:"omitempty,oneof=carry clamp reject"`
	Layers []layerInput `json:"layers" binding:"required,min=1,dive"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req structureInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("valid body passes", func(t *testing.T) {
		w := postJSON(router, `{"name":"Oil","layers":[{"quantity":1,"unit":"ctn"},{"quantity":12,"unit":"pcs"}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w := postJSON(router, `{"name":"a very long name","policy":"round","layers":[{"quantity":1,"unit":"   "}]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-42", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be at most 10 characters", fields["name"])
		assert.Equal(t, "Must be one of: carry clamp reject", fields["policy"])
		assert.Equal(t, "Unit label must be non-empty and at most 20 characters", fields["unit"])
	})

	t.Run("empty layers", func(t *testing.T) {
		w := postJSON(router, `{"name":"Oil","layers":[]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must contain at least 1 item(s)")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postJSON(router, `{"name":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		UUID     string `validate:"uuid"`
		GTE      int    `validate:"gte=10"`
		GT       int    `validate:"gt=0"`
	}

	err := validator.New().Struct(sample{UUID: "nope"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Invalid UUID format", messages["UUID"])
	assert.Equal(t, "Must be greater than or equal to 10", messages["GTE"])
	assert.Equal(t, "Must be greater than 0", messages["GT"])
}
