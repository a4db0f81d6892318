package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goodsdist/backend/internal/infrastructure/logger"
	"github.com/goodsdist/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// DefaultTenantID is used when no tenant header is sent and a fallback is allowed
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// TenantConfig holds configuration for tenant middleware
type TenantConfig struct {
	// Fallback is used when the header is absent. uuid.Nil makes the header mandatory.
	Fallback uuid.UUID
	// SkipPaths are paths that don't need a tenant (e.g. health checks)
	SkipPaths []string
}

// DefaultTenantConfig returns the single-tenant configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		Fallback:  DefaultTenantID,
		SkipPaths: []string{"/health", "/api/v1/system"},
	}
}

// Tenant resolves the tenant from the X-Tenant-ID header
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig returns tenant middleware with custom configuration
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := cfg.Fallback
		if header := strings.TrimSpace(c.GetHeader(TenantHeaderKey)); header != "" {
			parsed, err := uuid.Parse(header)
			if err != nil {
				abortTenant(c, "Invalid tenant ID format")
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			abortTenant(c, "Tenant identification required")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeTenantRequired,
		message,
		GetRequestID(c),
	))
}

// GetTenantID returns the tenant resolved by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
