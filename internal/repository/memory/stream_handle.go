package memory

import "context"

// StreamHandle is the cancellation handle for one in-flight inference
// request. The relay derives its upstream request context from Context();
// anyone holding the handle can abort that request through Cancel.
type StreamHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewStreamHandle(parent context.Context) *StreamHandle {
	ctx, cancel := context.WithCancel(parent)
	return &StreamHandle{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (h *StreamHandle) Context() context.Context {
	return h.ctx
}

// Cancel is safe to call multiple times.
func (h *StreamHandle) Cancel() {
	h.cancel()
}

func (h *StreamHandle) Cancelled() bool {
	return h.ctx.Err() != nil
}
