package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.start)
	rg.GET("/sessions", h.listForOperator)
	rg.GET("/sessions/:id", h.get)
	rg.POST("/sessions/:id/end", h.end)
}

func (h *Handler) start(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)
	operatorID := middleware.OperatorIDFromContext(c)
	if operatorID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "X-Operator-Id header is required", nil)
		return
	}

	session, err := h.Svc.Start(c.Request.Context(), tenantID, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start session", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, toSessionResponse(session))
}

type endSessionRequest struct {
	Notes     string `json:"notes"`
	Cancelled bool   `json:"cancelled"`
}

func (h *Handler) end(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	// an empty body is fine, anything unparseable is not
	var req endSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	session, err := h.Svc.End(c.Request.Context(), tenantID, c.Param("id"), req.Notes, req.Cancelled)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrSessionClosed):
			respond.Error(c, http.StatusConflict, "conflict", "session already closed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to end session", nil)
		}
		return
	}
	respond.OK(c, toSessionResponse(session))
}

func (h *Handler) get(c *gin.Context) {
	session, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}
	respond.OK(c, toSessionResponse(session))
}

func (h *Handler) listForOperator(c *gin.Context) {
	operatorID := c.Query("operatorId")
	if operatorID == "" {
		operatorID = middleware.OperatorIDFromContext(c)
	}
	if operatorID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "operatorId is required", nil)
		return
	}

	list, err := h.Svc.ListForOperator(c.Request.Context(), operatorID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, session := range list {
		out = append(out, toSessionResponse(session))
	}
	respond.OK(c, gin.H{"sessions": out})
}

func toSessionResponse(session Session) gin.H {
	resp := gin.H{
		"id":         session.ID,
		"operatorId": session.OperatorID,
		"status":     string(session.Status),
		"processed":  session.ProcessedCount,
		"uploaded":   session.UploadedCount,
		"errors":     session.ErrorCount,
		"notes":      session.Notes,
		"startedAt":  session.StartedAt,
	}
	if session.EndedAt != nil {
		resp["endedAt"] = session.EndedAt
	}
	return resp
}
