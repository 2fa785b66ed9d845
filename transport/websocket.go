// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrInvalidMessage indicates that a message payload was not valid.
	ErrInvalidMessage = errors.New("message type not binary")
)

// Websocket is a dialer for connecting to a broker over a websocket.
type Websocket struct {
	id      string            // the internal id of the dialer
	address string            // the ws:// url to connect to
	log     *slog.Logger      // client logger
	dialer  *websocket.Dialer // negotiates the mqtt subprotocol [MQTT-6.0.0-3]
}

// NewWebsocket initialises and returns a new Websocket dialer, connecting to a url.
func NewWebsocket(id, address string) *Websocket {
	return &Websocket{
		id:      id,
		address: address,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 45 * time.Second,
			Subprotocols:     []string{"mqtt"},
		},
	}
}

// ID returns the id of the dialer.
func (d *Websocket) ID() string {
	return d.id
}

// Address returns the url of the dialer.
func (d *Websocket) Address() string {
	return d.address
}

// Protocol returns the protocol of the dialer.
func (d *Websocket) Protocol() string {
	return "ws"
}

// Init initializes the dialer.
func (d *Websocket) Init(log *slog.Logger) error {
	d.log = log
	return nil
}

// Dial performs the websocket handshake and returns the connection as a net.Conn.
func (d *Websocket) Dial(ctx context.Context) (net.Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, d.address, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	return &wsConn{Conn: c.UnderlyingConn(), c: c}, nil
}

// wsConn is a websocket connection which satisfies the net.Conn interface.
// MQTT packets may span or share binary messages [MQTT-6.0.0-2], so reads
// continue from the current message until it is exhausted.
type wsConn struct {
	net.Conn
	c *websocket.Conn
	r io.Reader
}

// Read reads the next span of bytes from the websocket connection and returns the number of bytes read.
func (ws *wsConn) Read(p []byte) (int, error) {
	for {
		if ws.r == nil {
			op, r, err := ws.c.NextReader()
			if err != nil {
				return 0, err
			}

			if op != websocket.BinaryMessage { // [MQTT-6.0.0-1]
				return 0, ErrInvalidMessage
			}

			ws.r = r
		}

		n, err := ws.r.Read(p)
		if errors.Is(err, io.EOF) {
			ws.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}

		return n, err
	}
}

// Write writes bytes to the websocket connection as a single binary message.
func (ws *wsConn) Write(p []byte) (int, error) {
	err := ws.c.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close signals the underlying websocket conn to close.
func (ws *wsConn) Close() error {
	return ws.c.Close()
}
