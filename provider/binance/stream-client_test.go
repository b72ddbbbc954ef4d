package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

// startControlFrameServer serves a websocket endpoint that records the pings
// and pongs it receives from the client. If pingPayload is non-empty the
// server sends that ping right after the handshake.
func startControlFrameServer(t *testing.T, pingPayload string, pings, pongs chan string) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.SetPingHandler(func(data string) error {
			pings <- data
			return nil
		})
		conn.SetPongHandler(func(data string) error {
			pongs <- data
			return nil
		})

		if pingPayload != "" {
			if err := conn.WriteControl(websocket.PingMessage,
				[]byte(pingPayload), time.Now().Add(time.Second)); err != nil {
				return
			}
		}

		// reading drives the control-frame handlers
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamClient_AnswersInboundPingWithMatchingPong(t *testing.T) {
	pings := make(chan string, 1)
	pongs := make(chan string, 1)
	url := startControlFrameServer(t, "live?", pings, pongs)

	client, err := DialStream(context.Background(), url)
	assert.NoError(t, err)
	defer client.Close()

	// the read loop is what lets the ping handler fire
	go func() {
		for {
			if _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case payload := <-pongs:
		assert.Equal(t, "live?", payload, "the pong must echo the ping payload")
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a pong for its ping")
	}
}

func TestStreamClient_PingSendsControlFrame(t *testing.T) {
	pings := make(chan string, 1)
	pongs := make(chan string, 1)
	url := startControlFrameServer(t, "", pings, pongs)

	client, err := DialStream(context.Background(), url)
	assert.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping())

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the client ping")
	}
}
