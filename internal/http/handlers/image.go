package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/clients/imagegen"
	"github.com/menttor/menttor-backend/internal/http/response"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/services"
)

type ImageHandler struct {
	images services.ImageService
}

func NewImageHandler(images services.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// POST /api/v1/images/generate
//
// Upstream failures come back classified with a retryable hint; retrying is
// the client's call, the server never does it.
func (h *ImageHandler) Generate(c *gin.Context) {
	var req struct {
		Concept   string `json:"concept"`
		Subject   string `json:"subject"`
		Style     string `json:"style"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	img, cached, err := h.images.Generate(dbc, services.GenerateImageInput{
		Concept:   req.Concept,
		Subject:   req.Subject,
		Style:     req.Style,
		SessionID: req.SessionID,
	})
	if err != nil {
		var genErr *imagegen.Error
		if errors.As(err, &genErr) {
			c.JSON(statusForImagegenClass(genErr.Class), gin.H{
				"error": gin.H{
					"message":   genErr.Class.Message(),
					"code":      "imagegen_" + string(genErr.Class),
					"retryable": genErr.Class.Retryable(),
				},
			})
			return
		}
		response.RespondServiceError(c, "generate_image_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"image": img, "cached": cached})
}

func statusForImagegenClass(class imagegen.Class) int {
	switch class {
	case imagegen.ClassTimeout:
		return http.StatusGatewayTimeout
	case imagegen.ClassUnavailable:
		return http.StatusServiceUnavailable
	case imagegen.ClassInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
