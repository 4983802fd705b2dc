package services

import (
	"context"

	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/realtime"
	"github.com/menttor/menttor-backend/internal/realtime/bus"
)

// SSEEmitter abstracts where realtime messages go: straight into the local
// hub on a single instance, or through the Redis bus when several instances
// share the stream. Both honor a Pending carrier on the context, so messages
// raised inside a transaction are held until the caller drains them after
// commit.
type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if realtime.Append(ctx, msg) {
		return
	}
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes to the bus only; the forwarder feeds the local hub
// along with every other instance, so broadcasting here too would deliver
// twice.
type RedisEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if realtime.Append(ctx, msg) {
		return
	}
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("Failed to publish SSE message", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}
