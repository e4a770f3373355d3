package documents

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
	"compliance-backend/internal/shared/util"
)

const (
	maxUploadBytes   = 20 << 20
	signedURLExpires = 15 * time.Minute
)

// Handler wires HTTP handlers to the registry service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.register)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/url", h.signedURL)
	rg.PATCH("/documents/:id/status", h.setStatus)
	rg.POST("/documents/:id/verify", h.verify)
	rg.POST("/documents/:id/reupload", h.reupload)
}

func (h *Handler) register(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "a file is required", nil)
		return
	}
	data, fileName, err := readUpload(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	in := RegisterInput{
		Placement: Placement{
			EntityType: c.PostForm("entityType"),
			EntityID:   c.PostForm("entityId"),
		},
		Category: c.PostForm("category"),
		FileName: fileName,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Reason:   c.PostForm("reason"),
		Data:     data,
	}

	doc, deduped, err := h.Svc.RegisterOrUpdate(c.Request.Context(), tenantID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register document", nil)
		}
		return
	}

	status := http.StatusCreated
	if deduped {
		status = http.StatusOK
	}
	respond.JSON(c, status, toDocumentResponse(doc, deduped))
}

func (h *Handler) list(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)
	entityType := c.Query("entityType")
	entityID := c.Query("entityId")
	if entityType == "" || entityID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "entityType and entityId are required", nil)
		return
	}

	docs, err := h.Svc.ListByEntity(c.Request.Context(), tenantID, entityType, entityID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc, false))
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}
	respond.OK(c, toDocumentResponse(doc, false))
}

func (h *Handler) signedURL(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	url, err := h.Svc.SignedURL(c.Request.Context(), tenantID, c.Param("id"), signedURLExpires)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign url", nil)
		}
		return
	}
	if url == "" {
		respond.Error(c, http.StatusNotImplemented, "not_supported", "the configured store cannot sign urls", nil)
		return
	}
	respond.OK(c, gin.H{
		"url":              url,
		"expiresInSeconds": int64(signedURLExpires.Seconds()),
	})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.SetStatus(c.Request.Context(), tenantID, c.Param("id"), Status(req.Status)); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update document", nil)
		}
		return
	}
	respond.OK(c, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *Handler) verify(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	err := h.Svc.CheckIntegrity(c.Request.Context(), tenantID, c.Param("id"))
	switch {
	case err == nil:
		respond.OK(c, gin.H{"ok": true})
	case errors.Is(err, ErrCorruptionDetected):
		respond.JSON(c, http.StatusConflict, gin.H{
			"ok":     false,
			"status": string(StatusCorrupted),
			"detail": err.Error(),
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "integrity check failed", nil)
	}
}

func (h *Handler) reupload(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "a replacement file is required", nil)
		return
	}
	data, fileName, err := readUpload(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	if err := h.Svc.Reupload(c.Request.Context(), tenantID, c.Param("id"), fileName, data); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrDuplicateContent):
			respond.Error(c, http.StatusConflict, "duplicate_content", "replacement matches an existing document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reupload document", nil)
		}
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	if fileHeader.Size > maxUploadBytes {
		return nil, "", errors.New("file exceeds the upload size limit")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.New("failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", errors.New("failed to read uploaded file")
	}
	if len(data) > maxUploadBytes {
		return nil, "", errors.New("file exceeds the upload size limit")
	}
	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		return nil, "", errors.New("invalid file name")
	}
	return data, name, nil
}

func toDocumentResponse(doc Document, deduped bool) gin.H {
	resp := gin.H{
		"id":          doc.ID,
		"entityType":  doc.EntityType,
		"entityId":    doc.EntityID,
		"category":    doc.Category,
		"mimeType":    doc.MimeType,
		"sizeBytes":   doc.SizeBytes,
		"contentHash": doc.ContentHash,
		"version":     doc.Version,
		"status":      string(doc.Status),
		"fileName":    doc.Metadata.OriginalFilename,
		"createdAt":   doc.CreatedAt,
		"updatedAt":   doc.UpdatedAt,
	}
	if deduped {
		resp["deduplicated"] = true
	}
	return resp
}
