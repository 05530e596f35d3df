package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Total string `json:"total"`
}

func TestHub_InitialThenBroadcast(t *testing.T) {
	hub := NewHub(logrus.New())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, snapshot{Total: "1"})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var got snapshot
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "1", got.Total)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(snapshot{Total: "2"})
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "2", got.Total)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	hub := NewHub(logrus.New())
	rec := httptest.NewRecorder()
	hub.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.Clients())
}
