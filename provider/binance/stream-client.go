package binance

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 5 * time.Second
	writeWait        = 10 * time.Second
)

// StreamClient wraps one websocket connection to a diff stream. Reads
// happen from a single goroutine; control-frame writes are serialized so
// the ping timer and the inbound ping handler never interleave a frame.
type StreamClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialStream opens the diff stream at url. Inbound liveness pings are
// answered with the matching pong as soon as they are read.
func DialStream(ctx context.Context, url string) (*StreamClient, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &StreamClient{conn: conn}
	conn.SetPingHandler(func(data string) error {
		return c.writeControl(websocket.PongMessage, []byte(data))
	})
	return c, nil
}

// ReadMessage blocks for the next text frame. Control frames are handled
// inline by the handlers installed at dial time.
func (c *StreamClient) ReadMessage() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *StreamClient) Ping() error {
	return c.writeControl(websocket.PingMessage, nil)
}

func (c *StreamClient) Close() error {
	return c.conn.Close()
}

func (c *StreamClient) writeControl(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}
