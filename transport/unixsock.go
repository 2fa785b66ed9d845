// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package transport

import (
	"context"
	"log/slog"
	"net"
)

// UnixSock is a dialer for connecting to a broker over a unix socket.
type UnixSock struct {
	id      string       // the internal id of the dialer
	address string       // the path of the socket
	log     *slog.Logger // client logger
	dialer  net.Dialer
}

// NewUnixSock initialises and returns a new UnixSock dialer, connecting to a socket path.
func NewUnixSock(id, address string) *UnixSock {
	return &UnixSock{
		id:      id,
		address: address,
	}
}

// ID returns the id of the dialer.
func (d *UnixSock) ID() string {
	return d.id
}

// Address returns the socket path of the dialer.
func (d *UnixSock) Address() string {
	return d.address
}

// Protocol returns the network of the dialer.
func (d *UnixSock) Protocol() string {
	return "unix"
}

// Init initializes the dialer.
func (d *UnixSock) Init(log *slog.Logger) error {
	d.log = log
	return nil
}

// Dial opens a connection to the unix socket.
func (d *UnixSock) Dial(ctx context.Context) (net.Conn, error) {
	return d.dialer.DialContext(ctx, "unix", d.address)
}
