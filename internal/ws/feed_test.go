package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gymflow/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, feed *OrderFeed, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return feed.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestOrderFeed_BroadcastsEvents(t *testing.T) {
	feed := NewOrderFeed(nil)
	srv := httptest.NewServer(http.HandlerFunc(feed.Serve))
	defer srv.Close()

	a := dial(t, srv.URL)
	b := dial(t, srv.URL)
	waitForClients(t, feed, 2)

	feed.Publish(domain.OrderEvent{
		Type:  domain.EventOrderApproved,
		Order: &domain.PaymentOrder{ID: "order-1", Plan: domain.PlanWeekly, Status: domain.OrderApproved},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var evt domain.OrderEvent
		require.NoError(t, json.Unmarshal(msg, &evt))
		assert.Equal(t, domain.EventOrderApproved, evt.Type)
		assert.Equal(t, "order-1", evt.Order.ID)
	}
}

func TestOrderFeed_UnregistersClosedClients(t *testing.T) {
	feed := NewOrderFeed(nil)
	srv := httptest.NewServer(http.HandlerFunc(feed.Serve))
	defer srv.Close()

	conn := dial(t, srv.URL)
	waitForClients(t, feed, 1)

	conn.Close()
	waitForClients(t, feed, 0)
}

func TestOrderFeed_RejectsForeignOrigin(t *testing.T) {
	feed := NewOrderFeed([]string{"https://admin.gym.test"})
	srv := httptest.NewServer(http.HandlerFunc(feed.Serve))
	defer srv.Close()

	header := map[string][]string{"Origin": {"https://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}
