package app

import (
	"sync"

	"github.com/ayusman/courtside/internal/capture"
)

// mailbox is a single-slot frame buffer between the capture goroutine and
// the analysis goroutine. A put while a frame is still waiting replaces it,
// so analysis always sees the newest frame and never queues a backlog.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *capture.Frame
	closed bool

	drops uint64
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// put stores f, closing and counting any frame it replaces. It reports
// whether a frame was dropped. After close, f is closed and discarded.
func (m *mailbox) put(f *capture.Frame) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		f.Close()
		return true
	}

	dropped := false
	if m.frame != nil {
		m.frame.Close()
		m.drops++
		dropped = true
	}
	m.frame = f
	m.cond.Signal()
	return dropped
}

// take blocks until a frame is available and returns it. Once the mailbox
// is closed and empty it returns nil.
func (m *mailbox) take() *capture.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}

	f := m.frame
	m.frame = nil
	return f
}

// close wakes the consumer. A pending frame is still handed out by the next
// take.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}

func (m *mailbox) dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}
