package services

import (
	"context"
	"sync"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/realtime"
)

// fakeEmitter collects everything the notifiers would have sent over SSE.
type fakeEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (f *fakeEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeEmitter) messages() []realtime.SSEMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.SSEMessage, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeEmitter) countEvent(event realtime.SSEEvent) int {
	n := 0
	for _, m := range f.messages() {
		if m.Event == event {
			n++
		}
	}
	return n
}

func authedCtx(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID})
}

func authedDBC(u *types.User) dbctx.Context {
	return dbctx.Context{Ctx: authedCtx(u)}
}

func anonDBC() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}
