package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type NudgeHandler struct {
	nudges services.NudgeService
}

func NewNudgeHandler(nudges services.NudgeService) *NudgeHandler {
	return &NudgeHandler{nudges: nudges}
}

// GET /api/v1/nudges
func (h *NudgeHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	nudges, err := h.nudges.List(dbc)
	if err != nil {
		response.RespondServiceError(c, "list_nudges_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"nudges": nudges})
}

// POST /api/v1/nudges/:id/dismiss
func (h *NudgeHandler) Dismiss(c *gin.Context) {
	nudgeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_nudge_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.nudges.Dismiss(dbc, nudgeID); err != nil {
		response.RespondServiceError(c, "dismiss_nudge_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
