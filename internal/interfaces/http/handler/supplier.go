package handler

import (
	"github.com/gin-gonic/gin"
	packagingapp "github.com/goodsdist/backend/internal/application/packaging"
)

// SupplierItemHandler exposes the supplier-description parser
type SupplierItemHandler struct {
	BaseHandler
	packagingService *packagingapp.PackagingService
}

// NewSupplierItemHandler creates a new SupplierItemHandler
func NewSupplierItemHandler(packagingService *packagingapp.PackagingService) *SupplierItemHandler {
	return &SupplierItemHandler{
		packagingService: packagingService,
	}
}

// Parse godoc
// @Summary      Parse a supplier item description
// @Description  Detects nested pack counts such as "12 x 500ml" and derives per-piece prices. The result is advisory.
// @Tags         supplier-items
// @Accept       json
// @Produce      json
// @Param        request body packagingapp.ParseSupplierItemRequest true "Description and carton price"
// @Success      200 {object} dto.Response{data=packagingapp.SupplierParseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /supplier-items/parse [post]
func (h *SupplierItemHandler) Parse(c *gin.Context) {
	var req packagingapp.ParseSupplierItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	h.Success(c, h.packagingService.ParseSupplierItem(c.Request.Context(), req))
}
