package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type ConceptHandler struct {
	concepts services.ConceptService
}

func NewConceptHandler(concepts services.ConceptService) *ConceptHandler {
	return &ConceptHandler{concepts: concepts}
}

// POST /api/v1/concepts/extract
func (h *ConceptHandler) Extract(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
		Text    string `json:"text"`
		Limit   int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	matches, err := h.concepts.Extract(dbc, req.Subject, req.Text, req.Limit)
	if err != nil {
		response.RespondServiceError(c, "extract_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"matches": matches})
}
