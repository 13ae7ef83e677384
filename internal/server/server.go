package server

import (
	"context"
	"sync"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// Dispatcher handles one normalized incoming message
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *domain.Message)
}

// Server is a running platform connection
type Server interface {
	// Start connects and blocks until ctx is done or the connection fails
	Start(ctx context.Context) error
	// Stop disconnects and waits for in-flight events
	Stop()
}

// inflight tracks running event handlers. Once closed, no new handler may begin.
type inflight struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// begin registers a handler, false after close
func (f *inflight) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.wg.Add(1)
	return true
}

func (f *inflight) done() {
	f.wg.Done()
}

// closeAndWait rejects new handlers and waits for running ones
func (f *inflight) closeAndWait() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
}
