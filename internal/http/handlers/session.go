package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// POST /api/v1/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req struct {
		DocID *uuid.UUID `json:"doc_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.Start(dbc, req.DocID)
	if err != nil {
		response.RespondServiceError(c, "start_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, remaining, err := h.sessions.Get(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, "session_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{
		"session":                 session,
		"phase_remaining_seconds": int(remaining.Seconds()),
	})
}

// POST /api/v1/sessions/:id/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.Pause(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, "pause_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /api/v1/sessions/:id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.Resume(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, "resume_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /api/v1/sessions/:id/abandon
func (h *SessionHandler) Abandon(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	session, err := h.sessions.Abandon(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, "abandon_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}
