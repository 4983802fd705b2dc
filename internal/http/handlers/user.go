package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/v1/me
func (h *UserHandler) GetMe(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	user, err := h.users.GetMe(dbc)
	if err != nil {
		response.RespondServiceError(c, "fetch_user_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// PATCH /api/v1/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	user, err := h.users.UpdateDisplayName(dbc, req.DisplayName)
	if err != nil {
		response.RespondServiceError(c, "update_user_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
