package stockfighter

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
)

// SocketSink receives a socket's messages and its eventual close, each on an
// arbitrary goroutine. Closed is called exactly once, with nil for a clean
// close and the cause otherwise; no Message call follows it.
type SocketSink interface {
	Message(data []byte)
	Closed(err error)
}

// SocketHandle controls one open socket.
type SocketHandle interface {
	Close() error
}

// SocketTransport is the websocket capability the event relay is built on.
type SocketTransport interface {
	Open(url string, sink SocketSink) (SocketHandle, error)
}

type wsTransport struct {
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewSocketTransport builds the default gorilla/websocket-backed transport.
func NewSocketTransport(logger *zap.Logger) SocketTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &wsTransport{dialer: websocket.DefaultDialer, logger: logger}
}

func (t *wsTransport) Open(url string, sink SocketSink) (SocketHandle, error) {
	conn, _, err := t.dialer.Dial(url, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	t.logger.Debug("socket opened", zap.String("url", url))

	h := &wsHandle{
		conn:   conn,
		logger: t.logger.With(zap.String("url", url)),
		done:   make(chan struct{}),
	}
	go h.readPump(sink)
	go h.pingLoop()
	return h, nil
}

type wsHandle struct {
	conn      *websocket.Conn
	logger    *zap.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func (h *wsHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)
		deadline := time.Now().Add(socketWriteWait)
		h.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = h.conn.Close()
	})
	return err
}

func (h *wsHandle) readPump(sink SocketSink) {
	h.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	h.conn.SetPongHandler(func(string) error {
		h.conn.SetReadDeadline(time.Now().Add(socketPongWait))
		return nil
	})

	for {
		_, message, err := h.conn.ReadMessage()
		if err != nil {
			select {
			case <-h.done:
				// caller-initiated close
				sink.Closed(nil)
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sink.Closed(nil)
				} else {
					h.logger.Debug("socket read failed", zap.Error(err))
					sink.Closed(err)
				}
			}
			h.conn.Close()
			return
		}
		sink.Message(message)
	}
}

func (h *wsHandle) pingLoop() {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(socketWriteWait)
			if err := h.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-h.done:
			return
		}
	}
}
