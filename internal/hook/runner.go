package hook

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/courtside/internal/app"
)

// Runner is an app.Listener that fires hooks on session events. Hooks run
// in the background so the pipeline is never held up.
type Runner struct {
	manager  *Manager
	executor *Executor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	lastSession string
	closed      bool
}

// NewRunner creates a Runner over the hooks known to manager.
func NewRunner(manager *Manager, executor *Executor) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		manager:  manager,
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnSnapshot fires session_start the first time a session id is seen.
func (r *Runner) OnSnapshot(s app.Snapshot) {
	r.mu.Lock()
	isNew := s.SessionID != "" && s.SessionID != r.lastSession
	if isNew {
		r.lastSession = s.SessionID
	}
	r.mu.Unlock()

	if isNew {
		r.fire(&Request{Event: EventSessionStart, Snapshot: &s})
	}
}

// OnSessionEnd fires session_end with the session result.
func (r *Runner) OnSessionEnd(res app.SessionResult) {
	r.fire(&Request{Event: EventSessionEnd, Result: &res})
}

func (r *Runner) fire(base *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		slog.Debug("runner closed, skipping hooks", "event", base.Event)
		return
	}

	for _, h := range r.manager.ForEvent(base.Event) {
		req := *base
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			resp, err := r.executor.Execute(r.ctx, h, &req)
			switch {
			case err != nil:
				slog.Warn("hook failed", "hook", h.Manifest.Name, "event", req.Event, "error", err)
			case !resp.Success:
				slog.Warn("hook reported failure", "hook", h.Manifest.Name, "event", req.Event, "error", resp.Error)
			default:
				slog.Debug("hook done", "hook", h.Manifest.Name, "event", req.Event)
			}
		}()
	}
}

// Wait blocks until all running hooks have returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels running hooks and waits for them. Events after Close are
// ignored.
func (r *Runner) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	return nil
}
