package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/draftkeep/draftkeep/internal/errors"
)

// RequestKind identifies the editor operation a request asks for.
type RequestKind string

const (
	KindRead  RequestKind = "readEditorState"
	KindWrite RequestKind = "writeEditorState"
)

// Request is the outbound envelope broadcast to the host surface.
type Request struct {
	CorrelationID string      `json:"correlation_id"`
	Kind          RequestKind `json:"kind"`
	RichContent   string      `json:"rich_content,omitempty"`
}

// Response is the host's answer, matched back by correlation id.
type Response struct {
	CorrelationID string `json:"correlation_id"`
	State         State  `json:"state"`
	Error         string `json:"error,omitempty"`
}

// Transport carries requests to the host. Responses come back through
// Bridge.HandleResponse; the transport has no reply channel of its own.
type Transport interface {
	Send(req Request) error
}

// Bridge implements Surface over a broadcast-and-correlate transport.
// Every call gets a fresh correlation id and a bounded wait; responses for
// ids nobody is waiting on (late or duplicate) are dropped.
type Bridge struct {
	transport Transport
	clock     clockwork.Clock
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]chan Response
}

// NewBridge creates a bridge over the given transport. The timeout bounds
// every call; zero or negative values fall back to 2 seconds.
func NewBridge(transport Transport, clock clockwork.Clock, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Bridge{
		transport: transport,
		clock:     clock,
		timeout:   timeout,
		pending:   make(map[string]chan Response),
	}
}

// ReadState implements Surface.
func (b *Bridge) ReadState(ctx context.Context) (State, error) {
	resp, err := b.call(ctx, Request{Kind: KindRead})
	if err != nil {
		return State{}, err
	}
	return resp.State, nil
}

// WriteState implements Surface.
func (b *Bridge) WriteState(ctx context.Context, richContent string) error {
	_, err := b.call(ctx, Request{Kind: KindWrite, RichContent: richContent})
	return err
}

// HandleResponse delivers a host response to the waiting caller.
// Unknown correlation ids are ignored.
func (b *Bridge) HandleResponse(resp Response) {
	b.mu.Lock()
	ch, ok := b.pending[resp.CorrelationID]
	if ok {
		delete(b.pending, resp.CorrelationID)
	}
	b.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// Pending returns the number of in-flight requests (for tests).
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) call(ctx context.Context, req Request) (Response, error) {
	req.CorrelationID = uuid.NewString()

	// Buffered so a response racing the timeout never blocks HandleResponse.
	ch := make(chan Response, 1)
	b.mu.Lock()
	b.pending[req.CorrelationID] = ch
	b.mu.Unlock()

	if err := b.transport.Send(req); err != nil {
		b.abandon(req.CorrelationID)
		return Response{}, errors.NewInternal(err)
	}

	timer := b.clock.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return Response{}, errors.NewInternal(stringError(resp.Error))
		}
		return resp, nil
	case <-timer.Chan():
		b.abandon(req.CorrelationID)
		return Response{}, errors.NewTimeout(string(req.Kind))
	case <-ctx.Done():
		b.abandon(req.CorrelationID)
		return Response{}, errors.NewTimeout(string(req.Kind))
	}
}

func (b *Bridge) abandon(correlationID string) {
	b.mu.Lock()
	delete(b.pending, correlationID)
	b.mu.Unlock()
}

type stringError string

func (e stringError) Error() string { return string(e) }
