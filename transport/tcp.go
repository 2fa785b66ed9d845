// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package transport

import (
	"context"
	"log/slog"
	"net"
)

// TCP is a dialer for connecting to a broker over plain TCP.
type TCP struct { // [MQTT-4.2.0-1]
	id      string       // the internal id of the dialer
	address string       // the network address to connect to
	log     *slog.Logger // client logger
	dialer  net.Dialer
}

// NewTCP initialises and returns a new TCP dialer, connecting to an address.
func NewTCP(id, address string) *TCP {
	return &TCP{
		id:      id,
		address: address,
	}
}

// ID returns the id of the dialer.
func (d *TCP) ID() string {
	return d.id
}

// Address returns the address of the dialer.
func (d *TCP) Address() string {
	return d.address
}

// Protocol returns the network of the dialer.
func (d *TCP) Protocol() string {
	return "tcp"
}

// Init initializes the dialer.
func (d *TCP) Init(log *slog.Logger) error {
	d.log = log
	return nil
}

// Dial opens a TCP connection to the broker.
func (d *TCP) Dial(ctx context.Context) (net.Conn, error) {
	return d.dialer.DialContext(ctx, "tcp", d.address)
}
