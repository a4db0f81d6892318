package handler

import (
	"github.com/gin-gonic/gin"
	packagingapp "github.com/goodsdist/backend/internal/application/packaging"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader lets clients retry a replenishment safely
const IdempotencyKeyHeader = "Idempotency-Key"

// PackagingHandler handles packaging-structure API endpoints
type PackagingHandler struct {
	BaseHandler
	packagingService *packagingapp.PackagingService
}

// NewPackagingHandler creates a new PackagingHandler
func NewPackagingHandler(packagingService *packagingapp.PackagingService) *PackagingHandler {
	return &PackagingHandler{
		packagingService: packagingService,
	}
}

// Create godoc
// @Summary      Create a packaging record
// @Description  Create a packaging structure from explicit layers, or seed it from a supplier description
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        request body packagingapp.CreatePackagingRequest true "Packaging creation request"
// @Success      201 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging [post]
func (h *PackagingHandler) Create(c *gin.Context) {
	var req packagingapp.CreatePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.Create(c.Request.Context(), getTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// GetByID godoc
// @Summary      Get packaging record by ID
// @Tags         packaging
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id} [get]
func (h *PackagingHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	record, err := h.packagingService.GetByID(c.Request.Context(), getTenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// List godoc
// @Summary      List packaging records
// @Tags         packaging
// @Produce      json
// @Param        search query string false "Name search"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]packagingapp.PackagingListResponse,meta=dto.Meta}
// @Router       /packaging [get]
func (h *PackagingHandler) List(c *gin.Context) {
	var filter packagingapp.PackagingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.InvalidBody(c, err)
		return
	}

	records, total, err := h.packagingService.List(c.Request.Context(), getTenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, records, total, page, pageSize)
}

// Delete godoc
// @Summary      Delete a packaging record
// @Tags         packaging
// @Param        id path string true "Packaging ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id} [delete]
func (h *PackagingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	if err := h.packagingService.Delete(c.Request.Context(), getTenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Rename godoc
// @Summary      Rename a packaging record
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        request body packagingapp.RenamePackagingRequest true "New name"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Router       /packaging/{id}/name [put]
func (h *PackagingHandler) Rename(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	var req packagingapp.RenamePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.Rename(c.Request.Context(), getTenantID(c), id, req)
	h.respond(c, record, err)
}

// ReplaceLayers godoc
// @Summary      Replace the packaging structure
// @Description  Replace all layers at once; prices and stock are recomputed
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        request body packagingapp.ReplaceLayersRequest true "New layers, outermost first"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id}/layers [put]
func (h *PackagingHandler) ReplaceLayers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	var req packagingapp.ReplaceLayersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.ReplaceLayers(c.Request.Context(), getTenantID(c), id, req)
	h.respond(c, record, err)
}

// SetLayerPrice godoc
// @Summary      Set a layer selling price
// @Description  With auto-calculate on, a master price change re-derives the inner layers
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        index path int true "Layer index, 0 is the master unit"
// @Param        request body packagingapp.SetLayerPriceRequest true "Selling price or null"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id}/layers/{index}/price [put]
func (h *PackagingHandler) SetLayerPrice(c *gin.Context) {
	id, index, ok := h.layerParams(c)
	if !ok {
		return
	}

	var req packagingapp.SetLayerPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.SetLayerPrice(c.Request.Context(), getTenantID(c), id, index, req)
	h.respond(c, record, err)
}

// SetLayerStock godoc
// @Summary      Record loose stock at a layer
// @Description  The count is applied under the stock entry policy and then carried outward
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        index path int true "Layer index, 0 is the master unit"
// @Param        request body packagingapp.SetLayerStockRequest true "Loose count and optional policy"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id}/layers/{index}/stock [put]
func (h *PackagingHandler) SetLayerStock(c *gin.Context) {
	id, index, ok := h.layerParams(c)
	if !ok {
		return
	}

	var req packagingapp.SetLayerStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.SetLayerStock(c.Request.Context(), getTenantID(c), id, index, req)
	h.respond(c, record, err)
}

// SetBuyingPrice godoc
// @Summary      Set the master-unit buying price
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        request body packagingapp.SetBuyingPriceRequest true "Buying price or null"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Router       /packaging/{id}/buying-price [put]
func (h *PackagingHandler) SetBuyingPrice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	var req packagingapp.SetBuyingPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.SetBuyingPrice(c.Request.Context(), getTenantID(c), id, req)
	h.respond(c, record, err)
}

// SetAutoCalculate godoc
// @Summary      Toggle auto-calculated prices
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        request body packagingapp.SetAutoCalculateRequest true "Toggle"
// @Success      200 {object} dto.Response{data=packagingapp.PackagingResponse}
// @Router       /packaging/{id}/auto-calculate [put]
func (h *PackagingHandler) SetAutoCalculate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	var req packagingapp.SetAutoCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.packagingService.SetAutoCalculate(c.Request.Context(), getTenantID(c), id, req)
	h.respond(c, record, err)
}

// Replenish godoc
// @Summary      Replenish stock
// @Description  Adds received loose counts per layer. Retries with the same Idempotency-Key return the first receipt.
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Param        Idempotency-Key header string false "Client-chosen retry key"
// @Param        request body packagingapp.ReplenishRequest true "Counts keyed by layer index"
// @Success      200 {object} dto.Response{data=packagingapp.ReplenishResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packaging/{id}/replenish [post]
func (h *PackagingHandler) Replenish(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	var req packagingapp.ReplenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	receipt, err := h.packagingService.Replenish(
		c.Request.Context(), getTenantID(c), id, c.GetHeader(IdempotencyKeyHeader), req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// GetPricing godoc
// @Summary      Get the pricing breakdown
// @Tags         packaging
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=packagingapp.PricingResponse}
// @Router       /packaging/{id}/pricing [get]
func (h *PackagingHandler) GetPricing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	pricing, err := h.packagingService.GetPricing(c.Request.Context(), getTenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pricing)
}

// GetSavePayload godoc
// @Summary      Get the inventory save payload
// @Description  The payload handed to inventory create/update and replenish operations
// @Tags         packaging
// @Produce      json
// @Param        id path string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=packagingapp.SavePayloadResponse}
// @Router       /packaging/{id}/payload [get]
func (h *PackagingHandler) GetSavePayload(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return
	}

	payload, err := h.packagingService.BuildSavePayload(c.Request.Context(), getTenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payload)
}

// Preview godoc
// @Summary      Preview an unsaved structure
// @Description  Computes prices, stock and the save payload without persisting anything
// @Tags         packaging
// @Accept       json
// @Produce      json
// @Param        request body packagingapp.PreviewRequest true "Structure to evaluate"
// @Success      200 {object} dto.Response{data=packagingapp.PreviewResponse}
// @Router       /packaging/preview [post]
func (h *PackagingHandler) Preview(c *gin.Context) {
	var req packagingapp.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	preview, err := h.packagingService.Preview(c.Request.Context(), getTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// layerParams parses :id and :index, answering 400 itself on failure
func (h *PackagingHandler) layerParams(c *gin.Context) (uuid.UUID, int, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid packaging ID format")
		return uuid.Nil, 0, false
	}
	index, ok := parseIndex(c, "index")
	if !ok {
		h.BadRequest(c, "Layer index must be a non-negative integer")
		return uuid.Nil, 0, false
	}
	return id, index, true
}

// respond writes a mutation result
func (h *PackagingHandler) respond(c *gin.Context, record *packagingapp.PackagingResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}
