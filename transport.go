package stockfighter

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestID identifies one in-flight HTTP operation. Ids are assigned by the
// transport when the request is created, before it starts, so callers can
// key their own state off the id ahead of any callback.
type RequestID = uuid.UUID

// RequestSpec describes one HTTP request to issue.
type RequestSpec struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// ResponseSink receives a request's transport callbacks. Both methods may be
// called on arbitrary goroutines. BodyReceived is called at most once per
// request id, Completed exactly once; Completed carries the HTTP status when
// the request reached the server, or err when it did not.
type ResponseSink interface {
	BodyReceived(id RequestID, body []byte)
	Completed(id RequestID, status int, err error)
}

// RequestHandle is a created-but-controllable request: the id is readable
// before Start, and Cancel aborts the operation so that no further callbacks
// are delivered for it once the abort takes effect.
type RequestHandle interface {
	ID() RequestID
	Start()
	Cancel()
}

// HTTPTransport is the asynchronous capability the rest of the client is
// built on. Alternate implementations (tests, recorders) only need this
// one method.
type HTTPTransport interface {
	NewRequest(spec RequestSpec, sink ResponseSink) RequestHandle
}

const defaultRequestTimeout = 30 * time.Second

type httpTransport struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPTransport builds the default net/http-backed transport. A nil
// client gets a timeout-bounded default; a nil logger logs nowhere.
func NewHTTPTransport(client *http.Client, logger *zap.Logger) HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpTransport{client: client, logger: logger}
}

func (t *httpTransport) NewRequest(spec RequestSpec, sink ResponseSink) RequestHandle {
	ctx, cancel := context.WithCancel(context.Background())
	return &httpRequestHandle{
		id:        uuid.New(),
		spec:      spec,
		sink:      sink,
		transport: t,
		ctx:       ctx,
		cancel:    cancel,
	}
}

type httpRequestHandle struct {
	id        RequestID
	spec      RequestSpec
	sink      ResponseSink
	transport *httpTransport
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
}

func (h *httpRequestHandle) ID() RequestID {
	return h.id
}

func (h *httpRequestHandle) Start() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

func (h *httpRequestHandle) Cancel() {
	h.cancel()
}

func (h *httpRequestHandle) run() {
	logger := h.transport.logger.With(
		zap.Stringer("request_id", h.id),
		zap.String("method", h.spec.Method),
		zap.String("url", h.spec.URL),
	)

	var body io.Reader
	if len(h.spec.Body) > 0 {
		body = bytes.NewReader(h.spec.Body)
	}
	req, err := http.NewRequestWithContext(h.ctx, h.spec.Method, h.spec.URL, body)
	if err != nil {
		logger.Debug("building request failed", zap.Error(err))
		h.sink.Completed(h.id, 0, err)
		return
	}
	for k, vs := range h.spec.Header {
		req.Header[k] = vs
	}

	resp, err := h.transport.client.Do(req)
	if err != nil {
		logger.Debug("request failed", zap.Error(err))
		h.sink.Completed(h.id, 0, err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("reading response body failed", zap.Error(err))
		h.sink.Completed(h.id, resp.StatusCode, err)
		return
	}

	logger.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Int("body_bytes", len(data)))
	if len(data) > 0 {
		h.sink.BodyReceived(h.id, data)
	}
	h.sink.Completed(h.id, resp.StatusCode, nil)
}
