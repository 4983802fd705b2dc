// Package bus carries SSE messages between instances. A single-instance
// deployment runs without one; the app falls back to broadcasting straight
// into the local hub.
package bus

import (
	"context"

	"github.com/menttor/menttor-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
