package stockfighter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// collectingSink records socket callbacks for assertions.
type collectingSink struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	closeErr error
	done     chan struct{}
}

func newCollectingSink() *collectingSink {
	return &collectingSink{done: make(chan struct{})}
}

func (s *collectingSink) Message(data []byte) {
	s.mu.Lock()
	s.messages = append(s.messages, data)
	s.mu.Unlock()
}

func (s *collectingSink) Closed(err error) {
	s.mu.Lock()
	s.closed = true
	s.closeErr = err
	s.mu.Unlock()
	close(s.done)
}

func (s *collectingSink) snapshot() ([][]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.messages...), s.closed, s.closeErr
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSocketTransportReceivesMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, msg := range []string{"quote-1", "quote-2", "quote-3"} {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	}))
	defer server.Close()

	sink := newCollectingSink()
	handle, err := NewSocketTransport(nil).Open(wsURL(server), sink)
	require.NoError(t, err)
	defer handle.Close()

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("socket never closed")
	}

	messages, closed, closeErr := sink.snapshot()
	assert.Equal(t, [][]byte{[]byte("quote-1"), []byte("quote-2"), []byte("quote-3")}, messages)
	assert.True(t, closed)
	assert.NoError(t, closeErr, "a normal close frame is a clean close")
}

func TestSocketTransportCallerClose(t *testing.T) {
	connected := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		close(connected)
		// hold the socket open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer server.Close()

	sink := newCollectingSink()
	handle, err := NewSocketTransport(nil).Open(wsURL(server), sink)
	require.NoError(t, err)

	<-connected
	require.NoError(t, handle.Close())
	assert.NoError(t, handle.Close(), "close is idempotent")

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not reach the sink")
	}

	_, closed, closeErr := sink.snapshot()
	assert.True(t, closed)
	assert.NoError(t, closeErr, "caller-initiated close is clean")
}

func TestSocketTransportDialFailure(t *testing.T) {
	_, err := NewSocketTransport(nil).Open("ws://127.0.0.1:1/nowhere", newCollectingSink())
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestSocketTransportAbnormalClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// drop the TCP connection without a close handshake
		conn.UnderlyingConn().Close()
	}))
	defer server.Close()

	sink := newCollectingSink()
	handle, err := NewSocketTransport(nil).Open(wsURL(server), sink)
	require.NoError(t, err)
	defer handle.Close()

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("socket never closed")
	}

	_, closed, closeErr := sink.snapshot()
	assert.True(t, closed)
	assert.Error(t, closeErr, "an abnormal drop surfaces its cause")
}
