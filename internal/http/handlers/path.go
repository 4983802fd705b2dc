package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type PathHandler struct {
	learning services.LearningService
}

func NewPathHandler(learning services.LearningService) *PathHandler {
	return &PathHandler{learning: learning}
}

// GET /api/v1/paths
func (h *PathHandler) ListPaths(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	paths, err := h.learning.ListPaths(dbc)
	if err != nil {
		response.RespondServiceError(c, "list_paths_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"paths": paths})
}

// POST /api/v1/paths
func (h *PathHandler) CreatePath(c *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Subject string `json:"subject"`
		Goal    string `json:"goal"`
		Nodes   []struct {
			Title    string `json:"title"`
			Subtopic string `json:"subtopic"`
			Prereqs  []int  `json:"prereqs"`
		} `json:"nodes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.CreatePathInput{
		Title:   req.Title,
		Subject: req.Subject,
		Goal:    req.Goal,
	}
	for _, n := range req.Nodes {
		in.Nodes = append(in.Nodes, services.CreatePathNodeInput{
			Title:    n.Title,
			Subtopic: n.Subtopic,
			Prereqs:  n.Prereqs,
		})
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	path, err := h.learning.CreatePath(dbc, in)
	if err != nil {
		response.RespondServiceError(c, "create_path_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"path": path})
}

// GET /api/v1/paths/:id
func (h *PathHandler) GetPath(c *gin.Context) {
	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_path_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	path, edges, err := h.learning.GetPath(dbc, pathID)
	if err != nil {
		response.RespondServiceError(c, "path_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"path": path, "edges": edges})
}
