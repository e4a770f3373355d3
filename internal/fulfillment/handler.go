package fulfillment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/platform"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the fulfillment service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches queue routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/queue", h.enqueue)
	rg.GET("/queue", h.listByProject)
	rg.GET("/queue/stats", h.stats)
	rg.GET("/queue/:id", h.get)
	rg.PATCH("/queue/:id/status", h.setStatus)
	rg.POST("/queue/process", h.processBatch)
}

type enqueueRequest struct {
	ClientID       string `json:"clientId"`
	ProjectID      string `json:"projectId"`
	DocumentID     string `json:"documentId"`
	Priority       string `json:"priority"`
	TargetPlatform string `json:"targetPlatform"`
}

func (h *Handler) enqueue(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	target, err := platform.Parse(req.TargetPlatform)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	entry, err := h.Svc.Enqueue(c.Request.Context(), tenantID, EnqueueInput{
		ClientID:       req.ClientID,
		ProjectID:      req.ProjectID,
		DocumentID:     req.DocumentID,
		Priority:       Priority(req.Priority),
		TargetPlatform: target,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		case errors.Is(err, ErrActiveEntryExists):
			respond.Error(c, http.StatusConflict, "conflict", "document already has an active queue entry", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue document", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) listByProject(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)
	projectID := c.Query("projectId")
	if projectID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "projectId is required", nil)
		return
	}

	entries, err := h.Svc.ListByProject(c.Request.Context(), tenantID, projectID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list queue entries", nil)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryResponse(entry))
	}
	respond.OK(c, gin.H{"entries": out})
}

func (h *Handler) get(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	entry, err := h.Svc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "queue entry not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch queue entry", nil)
		}
		return
	}
	respond.OK(c, toEntryResponse(entry))
}

type setStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Error  string `json:"error"`
}

func (h *Handler) setStatus(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	entry, err := h.Svc.SetStatus(c.Request.Context(), tenantID, c.Param("id"), Status(req.Status), req.Note, req.Error)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "queue entry not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update queue entry", nil)
		}
		return
	}
	respond.OK(c, toEntryResponse(entry))
}

func (h *Handler) stats(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	counts, err := h.Svc.Stats(c.Request.Context(), tenantID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute queue stats", nil)
		return
	}

	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	respond.OK(c, gin.H{"counts": out})
}

type processBatchRequest struct {
	EntryIDs []string `json:"entryIds"`
}

func (h *Handler) processBatch(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req processBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.EntryIDs) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "entryIds is required", nil)
		return
	}

	results := h.Svc.ProcessBatch(c.Request.Context(), tenantID, req.EntryIDs)
	respond.OK(c, gin.H{"results": results})
}

func toEntryResponse(entry Entry) gin.H {
	return gin.H{
		"id":             entry.ID,
		"clientId":       entry.ClientID,
		"projectId":      entry.ProjectID,
		"documentId":     entry.DocumentID,
		"status":         string(entry.Status),
		"priority":       string(entry.Priority),
		"note":           entry.Note,
		"lastError":      entry.LastError,
		"retryCount":     entry.RetryCount,
		"targetPlatform": entry.TargetPlatform.String(),
		"createdAt":      entry.CreatedAt,
		"updatedAt":      entry.UpdatedAt,
	}
}
