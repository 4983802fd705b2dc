package realtime

import "context"

type pendingKey struct{}

// Pending collects SSE messages produced inside a request's transaction.
// Handlers flush it to the hub only after the transaction commits, so
// clients never hear about writes that rolled back.
type Pending struct {
	Messages []SSEMessage
}

func WithPending(ctx context.Context) context.Context {
	return context.WithValue(ctx, pendingKey{}, &Pending{Messages: make([]SSEMessage, 0)})
}

func GetPending(ctx context.Context) *Pending {
	p, ok := ctx.Value(pendingKey{}).(*Pending)
	if !ok {
		return nil
	}
	return p
}

// Append queues a message when the context carries a Pending, and reports
// whether it did. Callers without one publish immediately instead.
func Append(ctx context.Context, msg SSEMessage) bool {
	p := GetPending(ctx)
	if p == nil {
		return false
	}
	p.Messages = append(p.Messages, msg)
	return true
}

func (p *Pending) Drain() []SSEMessage {
	if p == nil {
		return nil
	}
	msgs := p.Messages
	p.Messages = nil
	return msgs
}
