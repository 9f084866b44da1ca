package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/internal/models"
)

func newWSTestServer(t *testing.T, h *Hub, latest func() *models.Snapshot) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", h.HandleWS(latest))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func snapshotAt(ts int64, kinds ...models.AlarmKind) models.Snapshot {
	return models.Snapshot{
		Measurement: models.Measurement{Timestamp: ts},
		Alarms:      kinds,
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d client(s)", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscriberReceivesPublishedSnapshots(t *testing.T) {
	h := NewHub()
	go h.Run()
	srv := newWSTestServer(t, h, func() *models.Snapshot { return nil })

	conn := dialWS(t, srv)
	waitForClients(t, h, 1)

	h.Publish(snapshotAt(1000, models.AlarmFall))
	h.Publish(snapshotAt(2000))

	env := readEnvelope(t, conn)
	assert.Equal(t, "sensor", env.Event)
	assert.Equal(t, int64(1000), env.Data.Timestamp)
	assert.Equal(t, []models.AlarmKind{models.AlarmFall}, env.Data.Alarms)

	// Frames arrive in publish order.
	env = readEnvelope(t, conn)
	assert.Equal(t, int64(2000), env.Data.Timestamp)
}

func TestLateSubscriberGetsLatestSnapshotFirst(t *testing.T) {
	h := NewHub()
	go h.Run()
	latest := snapshotAt(5000, models.AlarmHRLow)
	srv := newWSTestServer(t, h, func() *models.Snapshot { return &latest })

	conn := dialWS(t, srv)

	env := readEnvelope(t, conn)
	assert.Equal(t, "sensor", env.Event)
	assert.Equal(t, int64(5000), env.Data.Timestamp)
}

func TestClientCountTracksDisconnects(t *testing.T) {
	h := NewHub()
	go h.Run()
	srv := newWSTestServer(t, h, func() *models.Snapshot { return nil })

	conn := dialWS(t, srv)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}
