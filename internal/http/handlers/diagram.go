package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type DiagramHandler struct {
	diagrams services.DiagramService
}

func NewDiagramHandler(diagrams services.DiagramService) *DiagramHandler {
	return &DiagramHandler{diagrams: diagrams}
}

// POST /api/v1/diagrams/sanitize
func (h *DiagramHandler) Sanitize(c *gin.Context) {
	var req struct {
		Chart     string `json:"chart"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, cached, err := h.diagrams.Sanitize(dbc, req.Chart, req.SessionID)
	if err != nil {
		response.RespondServiceError(c, "sanitize_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"result": result, "cached": cached})
}
