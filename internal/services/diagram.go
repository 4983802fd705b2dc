package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	redisclient "github.com/menttor/menttor-backend/internal/clients/redis"
	"github.com/menttor/menttor-backend/internal/diagram"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

// DiagramService runs the mermaid sanitizer behind the session cache.
// Sanitizing is cheap but deterministic, so repeat charts inside a session
// are served from cache mostly to keep the response shape (including the
// rule notes) stable across retries of the same content.
type DiagramService interface {
	Sanitize(dbc dbctx.Context, chart, sessionID string) (diagram.Result, bool, error)
}

type diagramService struct {
	log   *logger.Logger
	cache redisclient.GenCache
}

func NewDiagramService(log *logger.Logger, cache redisclient.GenCache) DiagramService {
	return &diagramService{
		log:   log.With("service", "DiagramService"),
		cache: cache,
	}
}

func (ds *diagramService) Sanitize(dbc dbctx.Context, chart, sessionID string) (diagram.Result, bool, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return diagram.Result{}, false, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if strings.TrimSpace(chart) == "" {
		return diagram.Result{}, false, fmt.Errorf("chart required: %w", ErrInvalidArgument)
	}

	scope := strings.TrimSpace(sessionID)
	if scope == "" {
		scope = rd.UserID.String()
	}

	if raw, ok := ds.cache.Get(dbc.Ctx, "diagram", scope, "", chart); ok {
		var res diagram.Result
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			return res, true, nil
		}
		ds.log.Warn("Discarding undecodable cached diagram")
	}

	res := diagram.Sanitize(chart)
	if raw, err := json.Marshal(res); err == nil {
		ds.cache.Set(dbc.Ctx, "diagram", scope, "", chart, string(raw))
	}
	return res, false, nil
}
