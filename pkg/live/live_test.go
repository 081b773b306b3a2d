package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestBrokerTopics(t *testing.T) {
	b := NewBroker()
	defer b.Shutdown()
	ctx := context.Background()

	all, err := b.Subscribe(ctx, TopicAll)
	require.NoError(t, err)
	hello, err := b.Subscribe(ctx, "hello")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "other")
	require.NoError(t, err)

	assert.Equal(t, 2, b.Publish(GraphUpdated("hello")))
	assert.Equal(t, EventGraphUpdated, receive(t, all).Type)
	assert.Equal(t, "hello", receive(t, hello).Graph)

	select {
	case ev := <-other.Events():
		t.Fatalf("unexpected event on other topic: %+v", ev)
	default:
	}

	assert.Equal(t, 2, b.Publish(TranslationFailed("hello")))
	ev := receive(t, all)
	assert.Equal(t, FailureMessage, ev.Error)
	assert.Equal(t, "hello", ev.Graph)
	assert.Equal(t, EventTranslationFailed, receive(t, hello).Type)
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	defer b.Shutdown()
	_, err := b.Subscribe(context.Background(), "g")
	require.NoError(t, err)

	for i := 0; i < subscriptionBuffer+5; i++ {
		b.Publish(GraphUpdated("g"))
	}
	assert.Equal(t, int64(5), b.Dropped())
}

func TestBrokerContextCancelUnsubscribes(t *testing.T) {
	b := NewBroker()
	defer b.Shutdown()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := b.Subscribe(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("g"))

	cancel()
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription not closed on cancel")
	}
	assert.Equal(t, 0, b.Subscribers("g"))
}

func TestBrokerShutdown(t *testing.T) {
	b := NewBroker()
	sub, err := b.Subscribe(context.Background(), "g")
	require.NoError(t, err)

	b.Shutdown()
	b.Shutdown()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Publish(GraphUpdated("g")))

	_, err = b.Subscribe(context.Background(), "g")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBrokerConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		sub, err := b.Subscribe(context.Background(), TopicAll)
		require.NoError(t, err)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(GraphUpdated("g"))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Subscribers(TopicAll))
}

func dial(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHubRelaysEvents(t *testing.T) {
	b := NewBroker()
	defer b.Shutdown()
	reg := metrics.NewRegistry()
	hub := NewHub(b, nil, reg, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "?graph=hello", nil)
	hello := readEvent(t, conn)
	assert.Equal(t, EventHello, hello.Type)
	assert.Equal(t, "hello", hello.Graph)

	require.Eventually(t, func() bool { return b.Subscribers("hello") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(GraphUpdated("other"))
	hub.Publish(GraphUpdated("hello"))

	ev := readEvent(t, conn)
	assert.Equal(t, EventGraphUpdated, ev.Type)
	assert.Equal(t, "hello", ev.Graph)

	conn.Close()
	require.Eventually(t, func() bool { return b.Subscribers("hello") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	b := NewBroker()
	hub := NewHub(b, nil, metrics.NewRegistry(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "", nil)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return b.Subscribers(TopicAll) == 1 }, time.Second, 10*time.Millisecond)

	b.Shutdown()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://viewer.example.com"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://astra.local/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, check(req("")))
	assert.True(t, check(req("http://astra.local")))
	assert.True(t, check(req("https://viewer.example.com")))
	assert.False(t, check(req("https://evil.example.com")))
	assert.True(t, checkOrigin([]string{"*"})(req("https://evil.example.com")))
}
