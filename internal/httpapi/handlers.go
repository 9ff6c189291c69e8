package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"blocknotes/internal/domain"
	"blocknotes/internal/logger"
	"blocknotes/internal/service"
)

// DocumentHandler exposes DocumentService over HTTP. Blocks travel in their
// DTO form.
type DocumentHandler struct {
	log  *logger.Logger
	docs *service.DocumentService
}

func NewDocumentHandler(log *logger.Logger, docs *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{log: log.With("Handler", "DocumentHandler"), docs: docs}
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// FailurePage is the generic error page the boundary redirects to.
func FailurePage(c *gin.Context) {
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
		[]byte("<!doctype html><title>Error</title><h1>Something went wrong</h1><p><a href=\"/\">Back to start</a></p>"))
}

// ── Documents ──────────────────────────────────────────────

type titleRequest struct {
	Title string `json:"title"`
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.docs.ListDocuments(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	doc, err := h.docs.CreateDocument(c.Request.Context(), req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// GetDocument returns the document with all of its blocks.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	exp, err := h.docs.ExportDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (h *DocumentHandler) RenameDocument(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	doc, err := h.docs.RenameDocument(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.docs.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) ExportDocument(c *gin.Context) {
	id := c.Param("id")
	exp, err := h.docs.ExportDocument(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".json"))
	c.JSON(http.StatusOK, exp)
}

func (h *DocumentHandler) ImportDocument(c *gin.Context) {
	var exp domain.DocumentExport
	if err := c.ShouldBindJSON(&exp); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.docs.ImportDocument(c.Request.Context(), exp); err != nil {
		respondServiceError(c, err)
		return
	}
	h.log.Info("document imported over http", "document_id", exp.Document.ID)
	c.JSON(http.StatusCreated, exp.Document)
}

// ── Blocks ─────────────────────────────────────────────────

type convertRequest struct {
	Type    domain.BlockType `json:"type" binding:"required"`
	Options domain.Patch     `json:"options"`
}

func (h *DocumentHandler) AddBlock(c *gin.Context) {
	var req service.AddBlockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	b, err := h.docs.AddBlock(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.ToDTO(b))
}

func (h *DocumentHandler) UpdateBlock(c *gin.Context) {
	var patch domain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	b, err := h.docs.UpdateBlock(c.Request.Context(), c.Param("id"), c.Param("blockId"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.ToDTO(b))
}

func (h *DocumentHandler) DeleteBlock(c *gin.Context) {
	if err := h.docs.DeleteBlock(c.Request.Context(), c.Param("id"), c.Param("blockId")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) ConvertBlock(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	b, err := h.docs.ConvertBlock(c.Request.Context(), c.Param("id"), c.Param("blockId"), req.Type, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.ToDTO(b))
}
