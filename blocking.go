package stockfighter

import (
	"sync"

	"go.uber.org/zap"
)

// pendingRequest is the bridge's per-request record. It is mutated at most
// twice: once when the body arrives, once when the operation terminates. Only
// the terminal mutation closes done and wakes the waiter; the waiter owns the
// record exclusively after that and deletes it.
type pendingRequest struct {
	done    chan struct{}
	body    []byte
	gotBody bool
	status  int
	err     error
}

// BlockingBridge turns the asynchronous transport into synchronous calls:
// one blocked calling goroutine per in-flight request, parked on a one-shot
// channel keyed by the request id. The transport's delivery goroutines are
// never blocked; they write into the pending record and return.
type BlockingBridge struct {
	transport HTTPTransport
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[RequestID]*pendingRequest
}

func NewBlockingBridge(transport HTTPTransport, logger *zap.Logger) *BlockingBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockingBridge{
		transport: transport,
		logger:    logger,
		pending:   make(map[RequestID]*pendingRequest),
	}
}

// Perform issues the request and blocks until a terminal outcome is known.
// It returns the response body on success; otherwise one of *TransportError,
// *UnexpectedStatusError or ErrNoResponse. There is no retry at this layer:
// re-issuing a failed request is the caller's decision.
func (b *BlockingBridge) Perform(spec RequestSpec) ([]byte, error) {
	handle := b.transport.NewRequest(spec, b)
	id := handle.ID()

	rec := &pendingRequest{done: make(chan struct{})}
	b.mu.Lock()
	b.pending[id] = rec
	b.mu.Unlock()

	b.logger.Debug("blocking request started", zap.Stringer("request_id", id), zap.String("url", spec.URL))
	handle.Start()
	<-rec.done

	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()

	// done is closed after the final write, so the record is safe to read
	// without the lock from here on.
	switch {
	case rec.err != nil:
		return nil, &TransportError{Err: rec.err}
	case rec.status < 200 || rec.status > 299:
		return nil, &UnexpectedStatusError{Status: rec.status}
	case !rec.gotBody:
		return nil, ErrNoResponse
	default:
		return rec.body, nil
	}
}

// BodyReceived records the payload for a pending request. The body may
// arrive before the terminal status; it does not wake the waiter.
func (b *BlockingBridge) BodyReceived(id RequestID, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.pending[id]
	if !ok {
		panic(&ContractViolationError{Reason: "body delivered for unknown request " + id.String()})
	}
	if rec.gotBody {
		panic(&ContractViolationError{Reason: "duplicate body delivery for request " + id.String()})
	}
	rec.body = body
	rec.gotBody = true
}

// Completed records the terminal outcome and wakes the waiter exactly once.
func (b *BlockingBridge) Completed(id RequestID, status int, err error) {
	b.mu.Lock()
	rec, ok := b.pending[id]
	if !ok {
		b.mu.Unlock()
		panic(&ContractViolationError{Reason: "completion delivered for unknown request " + id.String()})
	}
	rec.status = status
	rec.err = err
	b.mu.Unlock()
	close(rec.done)
}
