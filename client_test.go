package stockfighter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSocketTransport hands the sink back to the test so it can play the
// remote side of the socket.
type fakeSocketTransport struct {
	mu    sync.Mutex
	url   string
	sink  SocketSink
	fails error

	closed bool
}

func (t *fakeSocketTransport) Open(url string, sink SocketSink) (SocketHandle, error) {
	if t.fails != nil {
		return nil, t.fails
	}
	t.mu.Lock()
	t.url = url
	t.sink = sink
	t.mu.Unlock()
	return t, nil
}

func (t *fakeSocketTransport) Close() error {
	t.mu.Lock()
	sink := t.sink
	alreadyClosed := t.closed
	t.closed = true
	t.mu.Unlock()
	if !alreadyClosed {
		sink.Closed(nil)
	}
	return nil
}

func testClient(transport HTTPTransport, sockets SocketTransport) *Client {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	return NewClientWithTransports(cfg, transport, sockets, nil)
}

func TestNewRequestSpec(t *testing.T) {
	c := testClient(nil, nil)
	spec := c.NewRequestSpec("GET", "/venues/TESTEX/heartbeat", nil)

	assert.Equal(t, "https://api.stockfighter.io/ob/api/venues/TESTEX/heartbeat", spec.URL)
	assert.Equal(t, "test-key", spec.Header.Get(AuthorizationHeader))
}

func TestDoDeliversBodyThenCompletes(t *testing.T) {
	transport := newFakeTransport(func(h *fakeHandle) {
		h.sink.BodyReceived(h.id, []byte(`{"ok":true}`))
		h.sink.Completed(h.id, 200, nil)
	})
	c := testClient(transport, nil)

	var got []byte
	done := make(chan struct{})
	c.Do(RequestSpec{Method: "GET", URL: "https://example.test/x"}).SubscribeFunc(
		func(body []byte) { got = body },
		func(err error) { t.Errorf("unexpected error: %v", err) },
		func() { close(done) },
	)

	<-done
	assert.Equal(t, []byte(`{"ok":true}`), got)
}

func TestDoSurfacesStatusError(t *testing.T) {
	transport := newFakeTransport(func(h *fakeHandle) {
		h.sink.Completed(h.id, 404, nil)
	})
	c := testClient(transport, nil)

	errCh := make(chan error, 1)
	c.Do(RequestSpec{}).SubscribeFunc(nil, func(err error) { errCh <- err }, nil)

	var statusErr *UnexpectedStatusError
	require.ErrorAs(t, <-errCh, &statusErr)
	assert.Equal(t, 404, statusErr.Status)
}

func TestDoIsCold(t *testing.T) {
	transport := newFakeTransport(func(h *fakeHandle) {
		h.sink.Completed(h.id, 200, errors.New("irrelevant"))
	})
	c := testClient(transport, nil)

	obs := c.Do(RequestSpec{})
	assert.Zero(t, transport.requestCount(), "nothing starts before Subscribe")

	obs.SubscribeFunc(nil, func(error) {}, nil)
	obs.SubscribeFunc(nil, func(error) {}, nil)
	assert.Equal(t, 2, transport.requestCount(), "each subscriber re-issues the request")
}

func TestDoDisposeCancelsAndDropsLateCallbacks(t *testing.T) {
	release := make(chan struct{})
	delivered := make(chan struct{})
	transport := newFakeTransport(func(h *fakeHandle) {
		<-release
		h.sink.BodyReceived(h.id, []byte("late"))
		h.sink.Completed(h.id, 200, nil)
		close(delivered)
	})
	c := testClient(transport, nil)

	var notifications int
	sub := c.Do(RequestSpec{}).SubscribeFunc(
		func([]byte) { notifications++ },
		func(error) { notifications++ },
		func() { notifications++ },
	)
	sub.Dispose()
	assert.True(t, transport.lastHandle().isCanceled())

	close(release)
	<-delivered
	assert.Zero(t, notifications, "callbacks after disposal are dropped, not delivered")
}

func TestStreamEventsFanout(t *testing.T) {
	sockets := &fakeSocketTransport{}
	c := testClient(nil, sockets)

	stream, err := c.StreamEvents("/quotes/TESTEX")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.stockfighter.io/ob/api/ws/quotes/TESTEX", sockets.url)

	a := make([][]byte, 0)
	b := make([][]byte, 0)
	stream.Events().SubscribeFunc(func(m []byte) { a = append(a, m) }, func(error) {}, nil)
	stream.Events().SubscribeFunc(func(m []byte) { b = append(b, m) }, func(error) {}, nil)

	sockets.sink.Message([]byte("tick-1"))
	sockets.sink.Message([]byte("tick-2"))

	assert.Equal(t, [][]byte{[]byte("tick-1"), []byte("tick-2")}, a)
	assert.Equal(t, [][]byte{[]byte("tick-1"), []byte("tick-2")}, b)
}

func TestStreamEventsCleanCloseCompletes(t *testing.T) {
	sockets := &fakeSocketTransport{}
	c := testClient(nil, sockets)

	stream, err := c.StreamEvents("quotes")
	require.NoError(t, err)

	done := make(chan struct{})
	stream.Events().SubscribeFunc(nil, nil, func() { close(done) })

	require.NoError(t, stream.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clean close did not complete the stream")
	}
}

func TestStreamEventsErrorClosePropagates(t *testing.T) {
	sockets := &fakeSocketTransport{}
	c := testClient(nil, sockets)

	stream, err := c.StreamEvents("quotes")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	stream.Events().SubscribeFunc(nil, func(err error) { errCh <- err }, nil)

	cause := errors.New("peer hung up")
	sockets.sink.Closed(cause)

	var transportErr *TransportError
	got := <-errCh
	require.ErrorAs(t, got, &transportErr)
	assert.ErrorIs(t, got, cause)
}

func TestStreamEventsLateSubscriberMissesEarlierMessages(t *testing.T) {
	sockets := &fakeSocketTransport{}
	c := testClient(nil, sockets)

	stream, err := c.StreamEvents("quotes")
	require.NoError(t, err)

	sockets.sink.Message([]byte("before"))

	rec := make([][]byte, 0)
	stream.Events().SubscribeFunc(func(m []byte) { rec = append(rec, m) }, func(error) {}, nil)
	sockets.sink.Message([]byte("after"))

	assert.Equal(t, [][]byte{[]byte("after")}, rec, "the stream is hot")
}

func TestStreamEventsOpenFailure(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	sockets := &fakeSocketTransport{fails: &TransportError{Err: cause}}
	c := testClient(nil, sockets)

	_, err := c.StreamEvents("quotes")
	assert.ErrorIs(t, err, cause)
}
