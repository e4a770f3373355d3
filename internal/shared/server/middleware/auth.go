package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/respond"
	"compliance-backend/internal/tenancy"
)

const (
	tenantIDKey   = "tenantId"
	operatorIDKey = "operatorId"
	sessionIDKey  = "sessionId"
)

// Auth validates the API token and resolves the tenant and operator scope.
// Tenant id is mandatory on every request; the operator console sends it as
// X-Tenant-Id. Session id is optional and only used for audit attribution.
func Auth(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if apiToken != "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
		}

		tenantID := strings.TrimSpace(c.GetHeader("X-Tenant-Id"))
		if tenantID == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "X-Tenant-Id header is required", nil)
			return
		}
		c.Set(tenantIDKey, tenantID)

		ctx := tenancy.WithTenant(c.Request.Context(), tenantID)

		if operatorID := strings.TrimSpace(c.GetHeader("X-Operator-Id")); operatorID != "" {
			c.Set(operatorIDKey, operatorID)
			ctx = tenancy.WithOperator(ctx, operatorID)
		}
		if sessionID := strings.TrimSpace(c.GetHeader("X-Session-Id")); sessionID != "" {
			c.Set(sessionIDKey, sessionID)
			ctx = tenancy.WithSession(ctx, sessionID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TenantIDFromContext fetches the tenant id set by the auth middleware.
func TenantIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(tenantIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// OperatorIDFromContext fetches the operator id set by the auth middleware.
func OperatorIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(operatorIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// SessionIDFromContext fetches the session id set by the auth middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
