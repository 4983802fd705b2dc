package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type LearningHandler struct {
	learning services.LearningService
	export   services.ExportService
	jobs     services.JobService
}

func NewLearningHandler(learning services.LearningService, export services.ExportService, jobs services.JobService) *LearningHandler {
	return &LearningHandler{learning: learning, export: export, jobs: jobs}
}

// queryLimit reads an optional ?limit= query param; zero means repo default.
func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// GET /api/v1/learning
func (h *LearningHandler) ListDocs(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	docs, err := h.learning.ListDocs(dbc, queryLimit(c))
	if err != nil {
		response.RespondServiceError(c, "list_docs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"docs": docs})
}

// POST /api/v1/learning
func (h *LearningHandler) CreateDoc(c *gin.Context) {
	var req struct {
		Subject    string          `json:"subject"`
		Subtopic   string          `json:"subtopic"`
		Goal       string          `json:"goal"`
		Content    json.RawMessage `json:"content"`
		PathNodeID *uuid.UUID      `json:"path_node_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.learning.CreateDoc(dbc, services.CreateDocInput{
		Subject:    req.Subject,
		Subtopic:   req.Subtopic,
		Goal:       req.Goal,
		Content:    req.Content,
		PathNodeID: req.PathNodeID,
	})
	if err != nil {
		response.RespondServiceError(c, "create_doc_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"doc": doc})
}

// GET /api/v1/learning/:id
func (h *LearningHandler) GetDoc(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.learning.GetDoc(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "doc_not_found", err)
		return
	}
	// Content goes out as the raw block array, exactly as stored.
	response.RespondOK(c, gin.H{
		"id":           doc.ID,
		"subject":      doc.Subject,
		"subtopic":     doc.Subtopic,
		"goal":         doc.Goal,
		"content":      json.RawMessage(doc.Blocks),
		"path_node_id": doc.PathNodeID,
		"created_at":   doc.CreatedAt,
		"updated_at":   doc.UpdatedAt,
	})
}

// PUT /api/v1/learning/:id/blocks
func (h *LearningHandler) UpdateDocBlocks(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.learning.UpdateDocBlocks(dbc, docID, req.Content)
	if err != nil {
		response.RespondServiceError(c, "update_doc_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"doc": doc})
}

// DELETE /api/v1/learning/:id
func (h *LearningHandler) DeleteDoc(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.learning.DeleteDoc(dbc, docID); err != nil {
		response.RespondServiceError(c, "delete_doc_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/v1/learning/:id/export
//
// Synchronous render: the PDF comes back in the response body. Large docs
// should go through the export job instead.
func (h *LearningHandler) ExportDoc(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	artifact, err := h.export.ExportDoc(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, "application/pdf", artifact.Data)
}

// POST /api/v1/learning/:id/export-jobs
func (h *LearningHandler) CreateExportJob(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	// Owner check happens here; the job row then carries the authorization.
	doc, err := h.learning.GetDoc(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "doc_not_found", err)
		return
	}
	job, created, err := h.jobs.EnqueueUnlessRunnable(dbc, doc.OwnerUserID, types.JobTypeDocExport, "learning_doc", &doc.ID, map[string]any{
		"doc_id": doc.ID.String(),
	})
	if err != nil {
		response.RespondServiceError(c, "enqueue_export_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job, "created": created})
}

// GET /api/v1/learning/:id/exports
func (h *LearningHandler) ListExports(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	records, err := h.export.ListExports(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "list_exports_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"exports": records})
}

// POST /api/v1/learning/:id/share-cards
func (h *LearningHandler) CreateShareCardJob(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.learning.GetDoc(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "doc_not_found", err)
		return
	}
	job, created, err := h.jobs.EnqueueUnlessRunnable(dbc, doc.OwnerUserID, types.JobTypeShareCardRender, "learning_doc", &doc.ID, map[string]any{
		"doc_id": doc.ID.String(),
	})
	if err != nil {
		response.RespondServiceError(c, "enqueue_share_card_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job, "created": created})
}

// GET /api/v1/learning/:id/share-cards
func (h *LearningHandler) GetShareCards(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_doc_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	cards, err := h.export.ShareCardsForDoc(dbc, docID)
	if err != nil {
		response.RespondServiceError(c, "fetch_share_cards_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"cards": cards})
}
