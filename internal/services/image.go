package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/clients/imagegen"
	redisclient "github.com/menttor/menttor-backend/internal/clients/redis"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type GenerateImageInput struct {
	Concept string `json:"concept"`
	Subject string `json:"subject"`
	Style   string `json:"style,omitempty"`
	// SessionID scopes the cache; requests without one fall back to a
	// per-user scope.
	SessionID string `json:"session_id,omitempty"`
}

// ImageService fronts the generation provider with the session cache. The
// bool result reports a cache hit. Provider failures come back as
// *imagegen.Error so the handler can map class to status and show the
// class message; there is no retrying here.
type ImageService interface {
	Generate(dbc dbctx.Context, in GenerateImageInput) (imagegen.Image, bool, error)
}

type imageService struct {
	log    *logger.Logger
	client imagegen.Client
	cache  redisclient.GenCache
}

func NewImageService(log *logger.Logger, client imagegen.Client, cache redisclient.GenCache) ImageService {
	return &imageService{
		log:    log.With("service", "ImageService"),
		client: client,
		cache:  cache,
	}
}

func (is *imageService) Generate(dbc dbctx.Context, in GenerateImageInput) (imagegen.Image, bool, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return imagegen.Image{}, false, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	concept := strings.TrimSpace(in.Concept)
	if concept == "" {
		return imagegen.Image{}, false, fmt.Errorf("concept required: %w", ErrInvalidArgument)
	}

	scope := strings.TrimSpace(in.SessionID)
	if scope == "" {
		scope = rd.UserID.String()
	}
	content := concept + "|" + in.Subject + "|" + in.Style

	if raw, ok := is.cache.Get(dbc.Ctx, "image", scope, concept, content); ok {
		var img imagegen.Image
		if err := json.Unmarshal([]byte(raw), &img); err == nil {
			return img, true, nil
		}
		is.log.Warn("Discarding undecodable cached image", "concept", concept)
	}

	img, err := is.client.Generate(dbc.Ctx, imagegen.Request{
		Concept: concept,
		Subject: strings.TrimSpace(in.Subject),
		Style:   strings.TrimSpace(in.Style),
	})
	if err != nil {
		return imagegen.Image{}, false, err
	}

	if raw, err := json.Marshal(img); err == nil {
		is.cache.Set(dbc.Ctx, "image", scope, concept, content, string(raw))
	}
	return img, false, nil
}
