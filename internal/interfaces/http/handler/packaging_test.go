package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	packagingapp "github.com/goodsdist/backend/internal/application/packaging"
	"github.com/goodsdist/backend/internal/infrastructure/cache"
	"github.com/goodsdist/backend/internal/infrastructure/persistence"
	"github.com/goodsdist/backend/internal/infrastructure/persistence/models"
	"github.com/goodsdist/backend/internal/interfaces/http/dto"
	"github.com/goodsdist/backend/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// setupPackagingRouter wires a PackagingHandler to a real service backed by
// an in-memory sqlite repository.
func setupPackagingRouter(t *testing.T) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.ProductPackagingModel{}, &models.PackagingLayerModel{}))

	replay := cache.NewInMemoryReplayStore()
	t.Cleanup(func() { replay.Close() })

	svc := packagingapp.NewPackagingService(
		persistence.NewGormProductPackagingRepository(db),
		nil,
		packagingapp.DefaultServiceConfig(),
		nil,
	)
	svc.SetReplayStore(replay)

	h := NewPackagingHandler(svc)
	s := NewSupplierItemHandler(svc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Tenant())
	api := router.Group("/api/v1")
	api.POST("/packaging", h.Create)
	api.GET("/packaging", h.List)
	api.POST("/packaging/preview", h.Preview)
	api.GET("/packaging/:id", h.GetByID)
	api.DELETE("/packaging/:id", h.Delete)
	api.PUT("/packaging/:id/name", h.Rename)
	api.PUT("/packaging/:id/layers", h.ReplaceLayers)
	api.PUT("/packaging/:id/layers/:index/price", h.SetLayerPrice)
	api.PUT("/packaging/:id/layers/:index/stock", h.SetLayerStock)
	api.PUT("/packaging/:id/buying-price", h.SetBuyingPrice)
	api.PUT("/packaging/:id/auto-calculate", h.SetAutoCalculate)
	api.POST("/packaging/:id/replenish", h.Replenish)
	api.GET("/packaging/:id/pricing", h.GetPricing)
	api.GET("/packaging/:id/payload", h.GetSavePayload)
	api.POST("/supplier-items/parse", s.Parse)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

const cartonBody = `{
	"name": "Cooking Oil",
	"buying_price_per_unit": "900",
	"auto_calculate": true,
	"layers": [
		{"quantity": 1, "unit": "ctn", "selling_price": "1200"},
		{"quantity": "24", "unit": "pcs", "stock": 30},
		{"quantity": 500, "unit": "ml"}
	]
}`

func createCarton(t *testing.T, router *gin.Engine) packagingapp.PackagingResponse {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/packaging", cartonBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeInto[packagingapp.PackagingResponse](t, w).Data
}

func TestPackagingHandler_Create(t *testing.T) {
	router := setupPackagingRouter(t)

	t.Run("explicit layers", func(t *testing.T) {
		record := createCarton(t, router)

		assert.Equal(t, "Cooking Oil", record.Name)
		assert.Equal(t, middleware.DefaultTenantID, record.TenantID)
		assert.Equal(t, "CTN", record.SupplierUnit)
		assert.Equal(t, int64(24), record.TotalPiecesPerMaster)
		assert.Equal(t, int64(30), record.TotalStockPieces)
		require.Len(t, record.Layers, 3)
		assert.True(t, decimal.NewFromInt(50).Equal(*record.Layers[1].SellingPrice))
		assert.Equal(t, int64(1), *record.Layers[0].Stock)
		assert.Equal(t, int64(6), *record.Layers[1].Stock)
		assert.Equal(t, "measurement", record.Layers[2].Kind)
		assert.Nil(t, record.Layers[2].SellingPrice)
	})

	t.Run("seeded from supplier description", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging", gin.H{
			"supplier_description": "Cooking Oil 12 x 500ml",
			"carton_price":         "1800",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		record := decodeInto[packagingapp.PackagingResponse](t, w).Data
		assert.Equal(t, "Cooking Oil", record.Name)
		assert.Equal(t, "CTN", record.SupplierUnit)
		assert.Equal(t, int64(12), record.TotalPiecesPerMaster)
		assert.True(t, decimal.NewFromInt(1800).Equal(*record.BuyingPricePerUnit))
	})

	t.Run("no layers and no description", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging", gin.H{"name": "Empty"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidLayers, decodeInto[any](t, w).Error.Code)
	})

	t.Run("blank unit fails validation", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging", `{"name":"X","layers":[{"quantity":1,"unit":"  "}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeInto[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "unit", env.Error.Details[0].Field)
	})

	t.Run("malformed tenant header", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging", cartonBody, middleware.TenantHeaderKey, "shop-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPackagingHandler_GetListDelete(t *testing.T) {
	router := setupPackagingRouter(t)
	record := createCarton(t, router)
	path := "/api/v1/packaging/" + record.ID.String()

	w := doJSON(router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, record.ID, decodeInto[packagingapp.PackagingResponse](t, w).Data.ID)

	w = doJSON(router, http.MethodGet, path, nil, middleware.TenantHeaderKey, uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code, "records are tenant scoped")

	w = doJSON(router, http.MethodGet, "/api/v1/packaging?search=oil&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeInto[[]packagingapp.PackagingListResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(1), list.Meta.Total)
	assert.Equal(t, 10, list.Meta.PageSize)

	w = doJSON(router, http.MethodGet, "/api/v1/packaging?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/packaging/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackagingHandler_Edits(t *testing.T) {
	router := setupPackagingRouter(t)
	record := createCarton(t, router)
	base := "/api/v1/packaging/" + record.ID.String()

	t.Run("master price propagates", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/0/price", gin.H{"selling_price": "1440"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decodeInto[packagingapp.PackagingResponse](t, w).Data
		assert.True(t, decimal.NewFromInt(60).Equal(*updated.Layers[1].SellingPrice))
		require.NotNil(t, updated.Recompute)
		assert.Equal(t, []int{1}, updated.Recompute.RepricedLayers)
	})

	t.Run("loose stock carries outward", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/1/stock", gin.H{"stock": 50})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decodeInto[packagingapp.PackagingResponse](t, w).Data
		assert.Equal(t, int64(3), *updated.Layers[0].Stock)
		assert.Equal(t, int64(2), *updated.Layers[1].Stock)
		assert.Equal(t, []int{1}, updated.Recompute.CarriedLayers)
	})

	t.Run("reject policy", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/1/stock", gin.H{"stock": 24, "policy": "reject"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeStockOutOfRange, decodeInto[any](t, w).Error.Code)
	})

	t.Run("unknown policy fails validation", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/1/stock", gin.H{"stock": 2, "policy": "round"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("measurement layer has no price", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/2/price", gin.H{"selling_price": "5"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeMeasurementLayer, decodeInto[any](t, w).Error.Code)
	})

	t.Run("index out of range", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers/9/price", gin.H{"selling_price": "5"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidLayerIndex, decodeInto[any](t, w).Error.Code)

		w = doJSON(router, http.MethodPut, base+"/layers/x/price", gin.H{"selling_price": "5"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rename buying price and toggle", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/name", gin.H{"name": "Sunflower Oil"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodPut, base+"/buying-price", gin.H{"buying_price_per_unit": "960"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodPut, base+"/auto-calculate", gin.H{"enabled": false})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decodeInto[packagingapp.PackagingResponse](t, w).Data
		assert.Equal(t, "Sunflower Oil", updated.Name)
		assert.False(t, updated.AutoCalculate)
		assert.True(t, decimal.NewFromInt(960).Equal(*updated.BuyingPricePerUnit))

		w = doJSON(router, http.MethodPut, base+"/auto-calculate", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("replace layers", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, base+"/layers", `{"layers":[
			{"quantity":1,"unit":"bale","selling_price":"2400"},
			{"quantity":10,"unit":"packs"},
			{"quantity":24,"unit":"pcs","stock":250}
		]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decodeInto[packagingapp.PackagingResponse](t, w).Data
		assert.Equal(t, int64(240), updated.TotalPiecesPerMaster)
		assert.Equal(t, int64(1), *updated.Layers[0].Stock)
		assert.Equal(t, int64(0), *updated.Layers[1].Stock)
		assert.Equal(t, int64(10), *updated.Layers[2].Stock)
	})
}

func TestPackagingHandler_Replenish(t *testing.T) {
	router := setupPackagingRouter(t)
	record := createCarton(t, router)
	path := "/api/v1/packaging/" + record.ID.String() + "/replenish"
	body := gin.H{"stock": gin.H{"0": 2, "1": 20}}

	w := doJSON(router, http.MethodPost, path, body, IdempotencyKeyHeader, "delivery-77")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeInto[packagingapp.ReplenishResponse](t, w).Data
	assert.Equal(t, int64(68), first.AddedPieces)
	assert.Equal(t, int64(98), first.TotalPieces)
	assert.Equal(t, map[int]int64{0: 4, 1: 2}, first.Stock)
	assert.False(t, first.Replayed)

	w = doJSON(router, http.MethodPost, path, body, IdempotencyKeyHeader, "delivery-77")
	require.Equal(t, http.StatusOK, w.Code)
	retry := decodeInto[packagingapp.ReplenishResponse](t, w).Data
	assert.True(t, retry.Replayed)
	assert.Equal(t, first.TotalPieces, retry.TotalPieces)
	assert.Equal(t, first.Version, retry.Version)

	w = doJSON(router, http.MethodGet, "/api/v1/packaging/"+record.ID.String(), nil)
	assert.Equal(t, int64(98), decodeInto[packagingapp.PackagingResponse](t, w).Data.TotalStockPieces)

	w = doJSON(router, http.MethodPost, path, gin.H{"stock": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, path, `{"stock":{"0":9223372036854775807}}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, dto.ErrCodeInvalidStock, decodeInto[any](t, w).Error.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/packaging/"+record.ID.String(), nil)
	assert.Equal(t, int64(98), decodeInto[packagingapp.PackagingResponse](t, w).Data.TotalStockPieces)
}

func TestPackagingHandler_ReadModels(t *testing.T) {
	router := setupPackagingRouter(t)
	record := createCarton(t, router)
	base := "/api/v1/packaging/" + record.ID.String()

	t.Run("pricing", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, base+"/pricing", nil)
		require.Equal(t, http.StatusOK, w.Code)

		pricing := decodeInto[packagingapp.PricingResponse](t, w).Data
		assert.Equal(t, int64(24), pricing.TotalPiecesPerMaster)
		assert.True(t, decimal.NewFromInt(300).Equal(*pricing.ProfitPerMaster))
		require.Len(t, pricing.Layers, 3)
		assert.Nil(t, pricing.Layers[2].ProfitPerPiece)
	})

	t.Run("save payload", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, base+"/payload", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var raw struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Equal(t, "CTN", raw.Data["supplierUnit"])
		assert.EqualValues(t, 24, raw.Data["supplierUnitQuantity"])
		structure := raw.Data["packagingStructure"].([]any)
		require.Len(t, structure, 3)
		ml := structure[2].(map[string]any)
		assert.Nil(t, ml["sellingPrice"])
		assert.Nil(t, ml["stock"])

		payload := decodeInto[packagingapp.SavePayloadResponse](t, w).Data
		assert.True(t, decimal.NewFromInt(45).Equal(*payload.MinimumPrice))
	})

	t.Run("preview", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging/preview", `{
			"buying_price_per_unit": "2000",
			"auto_calculate": true,
			"layers": [
				{"quantity":1,"unit":"BOXES","selling_price":"2400"},
				{"quantity":10,"unit":"PACKS"},
				{"quantity":24,"unit":"PCS","stock":250}
			]
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		preview := decodeInto[packagingapp.PreviewResponse](t, w).Data
		assert.Equal(t, []int{2}, preview.Recompute.CarriedLayers)
		assert.Equal(t, int64(1), *preview.Layers[0].Stock)
		assert.Equal(t, int64(10), *preview.Layers[2].Stock)
		assert.True(t, decimal.NewFromInt(240).Equal(*preview.Layers[1].SellingPrice))

		w = doJSON(router, http.MethodGet, "/api/v1/packaging", nil)
		assert.Len(t, decodeInto[[]packagingapp.PackagingListResponse](t, w).Data, 1, "preview persists nothing")
	})

	t.Run("preview refuses piece counts that do not fit", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/packaging/preview", `{
			"buying_price_per_unit": "900",
			"auto_calculate": true,
			"layers": [
				{"quantity":1,"unit":"CTN","selling_price":"1200"},
				{"quantity":"4294967296","unit":"BOXES"},
				{"quantity":"4294967296","unit":"PCS"}
			]
		}`)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, dto.ErrCodeInvalidLayers, decodeInto[any](t, w).Error.Code)
	})
}

func TestSupplierItemHandler_Parse(t *testing.T) {
	router := setupPackagingRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/supplier-items/parse", gin.H{
		"description":  "Cooking Oil 12 x 500ml",
		"carton_price": "1800",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	parsed := decodeInto[packagingapp.SupplierParseResponse](t, w).Data
	assert.True(t, parsed.Recognized)
	assert.Equal(t, "Cooking Oil", parsed.CleanName)
	assert.Equal(t, "CTN", parsed.SupplierUnit)
	assert.True(t, decimal.NewFromInt(150).Equal(parsed.CalculatedPricePerPiece))

	var raw struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "simple_carton", raw.Data["packagingType"])
	assert.EqualValues(t, 12, raw.Data["totalSellableUnits"])
	assert.Equal(t, "150", raw.Data["calculatedPricePerPiece"])
	assert.NotContains(t, raw.Data, "packaging_type")

	w = doJSON(router, http.MethodPost, "/api/v1/supplier-items/parse", gin.H{"carton_price": "10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
