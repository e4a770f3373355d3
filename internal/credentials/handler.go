package credentials

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/platform"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the vault service. Passwords are returned
// only from the single-credential fetch, never from listings.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credential routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/credentials", h.save)
	rg.GET("/credentials", h.list)
	rg.GET("/credentials/:platform", h.get)
}

type saveRequest struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
	Password string `json:"password"`
	Alias    string `json:"alias"`
}

func (h *Handler) save(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	platformType, err := platform.Parse(req.Platform)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	if err := h.Svc.Save(c.Request.Context(), tenantID, platformType, req.Username, req.Password, req.Alias); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save credential", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) get(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	platformType, err := platform.Parse(c.Param("platform"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	cred, err := h.Svc.Get(c.Request.Context(), tenantID, platformType, c.Query("alias"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch credential", nil)
		return
	}
	if cred == nil {
		// no credential is an expected state, not an error
		respond.OK(c, gin.H{"configured": false})
		return
	}
	respond.OK(c, gin.H{
		"configured": true,
		"platform":   cred.Platform.String(),
		"alias":      cred.Alias,
		"username":   cred.Username,
		"password":   cred.Password,
		"state":      string(cred.State),
	})
}

func (h *Handler) list(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	creds, err := h.Svc.ListForTenant(c.Request.Context(), tenantID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list credentials", nil)
		return
	}

	out := make([]gin.H, 0, len(creds))
	for _, cred := range creds {
		entry := gin.H{
			"platform": cred.Platform.String(),
			"alias":    cred.Alias,
			"username": cred.Username,
			"state":    string(cred.State),
		}
		if cred.LastValidatedAt != nil {
			entry["lastValidatedAt"] = cred.LastValidatedAt
		}
		out = append(out, entry)
	}
	respond.OK(c, gin.H{"credentials": out})
}
