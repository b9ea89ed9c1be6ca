package stockfighter

import (
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/borland/StockFighterApiClient/rx"
)

// AuthorizationHeader carries the API key on authenticated requests.
const AuthorizationHeader = "X-Starfighter-Authorization"

// Client ties the transports, the blocking bridge and the reactive layer
// together. The endpoint-specific URL and JSON mapping lives with callers;
// the client deals in raw request specs and response bytes.
type Client struct {
	cfg       *Config
	transport HTTPTransport
	sockets   SocketTransport
	bridge    *BlockingBridge
	logger    *zap.Logger
}

// NewClient builds a client over the default net/http and gorilla/websocket
// transports. A nil config uses DefaultConfig; a nil logger logs nowhere.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := NewHTTPTransport(nil, logger)
	return &Client{
		cfg:       cfg,
		transport: transport,
		sockets:   NewSocketTransport(logger),
		bridge:    NewBlockingBridge(transport, logger),
		logger:    logger,
	}
}

// NewClientWithTransports builds a client over caller-supplied transports.
func NewClientWithTransports(cfg *Config, transport HTTPTransport, sockets SocketTransport, logger *zap.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:       cfg,
		transport: transport,
		sockets:   sockets,
		bridge:    NewBlockingBridge(transport, logger),
		logger:    logger,
	}
}

// NewRequestSpec builds an authenticated spec for a path under the
// configured API root.
func (c *Client) NewRequestSpec(method, path string, body []byte) RequestSpec {
	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set(AuthorizationHeader, c.cfg.APIKey)
	}
	return RequestSpec{
		Method: method,
		URL:    c.cfg.BaseURL + "/" + strings.TrimPrefix(path, "/"),
		Header: header,
		Body:   body,
	}
}

// Perform issues the request and blocks the calling goroutine until the
// response body or an error is available. See BlockingBridge.Perform.
func (c *Client) Perform(spec RequestSpec) ([]byte, error) {
	return c.bridge.Perform(spec)
}

// Do issues the request asynchronously: the returned observable is cold,
// starting a fresh transport request for each subscriber and delivering the
// response body as one OnNext followed by OnCompleted, or a single OnError
// from the same taxonomy as Perform. Disposing the subscription cancels the
// in-flight request and drops any callbacks that arrive after that.
func (c *Client) Do(spec RequestSpec) *rx.Observable[[]byte] {
	return rx.Create(func(observer *rx.Observer[[]byte]) rx.Disposable {
		sink := &asyncSink{observer: observer}
		handle := c.transport.NewRequest(spec, sink)
		handle.Start()
		return rx.NewDisposable(func() {
			sink.disposed.Store(true)
			handle.Cancel()
		})
	})
}

// asyncSink forwards one request's transport callbacks to an observer,
// dropping anything that arrives after the subscription was disposed.
type asyncSink struct {
	observer *rx.Observer[[]byte]
	disposed atomic.Bool
	gotBody  atomic.Bool
}

func (s *asyncSink) BodyReceived(id RequestID, body []byte) {
	if s.disposed.Load() {
		return
	}
	s.gotBody.Store(true)
	s.observer.OnNext(body)
}

func (s *asyncSink) Completed(id RequestID, status int, err error) {
	if s.disposed.Load() {
		return
	}
	switch {
	case err != nil:
		s.observer.OnError(&TransportError{Err: err})
	case status < 200 || status > 299:
		s.observer.OnError(&UnexpectedStatusError{Status: status})
	case !s.gotBody.Load():
		s.observer.OnError(ErrNoResponse)
	default:
		s.observer.OnCompleted()
	}
}

// EventStream is one open socket multicast to any number of subscribers.
type EventStream struct {
	subject *rx.Subject[[]byte]
	handle  SocketHandle
}

// StreamEvents opens a socket for a path under the configured streaming root
// and relays its text messages into a hot observable. All subscribers share
// the one socket; a socket error terminates the stream with OnError wrapped
// as a TransportError, a clean close with OnCompleted.
func (c *Client) StreamEvents(path string) (*EventStream, error) {
	subject := rx.NewSubject[[]byte]()
	url := c.cfg.WebSocketURL + "/" + strings.TrimPrefix(path, "/")
	handle, err := c.sockets.Open(url, &socketRelay{subject: subject})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("event stream opened", zap.String("url", url))
	return &EventStream{subject: subject, handle: handle}, nil
}

// Events exposes the stream's messages. The observable is hot: subscribers
// only see messages sent after they subscribe.
func (s *EventStream) Events() *rx.Observable[[]byte] {
	return s.subject.AsObservable()
}

// Close shuts the socket; subscribers receive OnCompleted.
func (s *EventStream) Close() error {
	return s.handle.Close()
}

// socketRelay publishes socket callbacks into the stream's subject.
type socketRelay struct {
	subject *rx.Subject[[]byte]
}

func (r *socketRelay) Message(data []byte) {
	r.subject.OnNext(data)
}

func (r *socketRelay) Closed(err error) {
	if err != nil {
		r.subject.OnError(&TransportError{Err: err})
		return
	}
	r.subject.OnCompleted()
}
