package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/realtime"
	"github.com/menttor/menttor-backend/internal/services"
)

// AttachPending puts a pending-message carrier on every request context.
// Emitters inside the request append to it instead of broadcasting; once the
// handler is done and responded below 400, the held messages go out. A
// failed request drops them, so clients never hear about writes that rolled
// back with it.
func AttachPending(emit services.SSEEmitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := realtime.WithPending(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		p := realtime.GetPending(c.Request.Context())
		if p == nil {
			return
		}
		msgs := p.Drain()
		if emit == nil || c.Writer.Status() >= 400 {
			return
		}
		// A fresh context here, or Emit would just re-append to the carrier.
		for _, msg := range msgs {
			emit.Emit(context.Background(), msg)
		}
	}
}
