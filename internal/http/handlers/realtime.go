package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/observability"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/realtime"
	"github.com/menttor/menttor-backend/internal/services"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.SSEHub
	jobs     services.JobService
	sessions services.SessionService
	metrics  *observability.Metrics
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, jobs services.JobService, sessions services.SessionService, metrics *observability.Metrics) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		jobs:     jobs,
		sessions: sessions,
		metrics:  metrics,
	}
}

// GET /api/v1/realtime/sse
//
// Every connection is subscribed to the caller's user channel, which
// mirrors all of their job, session and nudge events. Focused watchers add
// ?channels=job:<id>,session:<id> to also receive the narrow streams.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	for _, raw := range strings.Split(c.Query("channels"), ",") {
		h.subscribeIfOwned(c, client, strings.TrimSpace(raw))
	}

	h.log.Debug("SSE stream open", "user_id", rd.UserID, "client_id", client.ID)
	h.metrics.SSEConnInc()
	defer h.metrics.SSEConnDec()

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "user_id", rd.UserID, "client_id", client.ID)
}

// subscribeIfOwned adds a narrow channel after checking the entity behind
// it belongs to the caller. A channel the caller cannot see is skipped, not
// fatal; the user channel still carries everything they own.
func (h *RealtimeHandler) subscribeIfOwned(c *gin.Context, client *realtime.SSEClient, channel string) {
	if channel == "" {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	switch {
	case strings.HasPrefix(channel, "job:"):
		id, err := uuid.Parse(strings.TrimPrefix(channel, "job:"))
		if err != nil {
			return
		}
		if _, err := h.jobs.GetByIDForRequestUser(dbc, id); err != nil {
			h.log.Warn("Skipping SSE channel", "channel", channel, "error", err)
			return
		}
	case strings.HasPrefix(channel, "session:"):
		id, err := uuid.Parse(strings.TrimPrefix(channel, "session:"))
		if err != nil {
			return
		}
		if _, _, err := h.sessions.Get(dbc, id); err != nil {
			h.log.Warn("Skipping SSE channel", "channel", channel, "error", err)
			return
		}
	default:
		return
	}
	h.hub.AddChannel(client, channel)
}
