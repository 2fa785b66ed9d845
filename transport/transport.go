// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package transport provides the network dialers a client uses to reach a broker.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
)

const (
	TypeTCP       = "tcp"
	TypeUnix      = "unix"
	TypeWebsocket = "ws"
)

var (
	// ErrUnknownType indicates a transport config named a type with no dialer.
	ErrUnknownType = errors.New("unknown transport type")

	// ErrMissingAddress indicates a transport config without an address.
	ErrMissingAddress = errors.New("transport address is required")
)

// Config contains configuration values for a dialer.
type Config struct {
	Type    string `yaml:"type" json:"type"`       // tcp, unix or ws
	ID      string `yaml:"id" json:"id"`           // an identifier for the dialer, used in logs
	Address string `yaml:"address" json:"address"` // host:port, a socket path, or a ws:// url
}

// Dialer is an interface for opening network connections to a broker.
type Dialer interface {
	Init(*slog.Logger) error                    // initialise the dialer
	Dial(ctx context.Context) (net.Conn, error) // open a new connection to the broker
	ID() string                                 // returns the id of the dialer
	Address() string                            // returns the address the dialer connects to
	Protocol() string                           // returns the network protocol of the dialer
}

// New returns the dialer described by the config.
func New(c Config) (Dialer, error) {
	if c.Address == "" {
		return nil, ErrMissingAddress
	}

	if c.Type == "" {
		c.Type = TypeTCP
	}

	if c.ID == "" {
		c.ID = c.Type
	}

	switch c.Type {
	case TypeTCP:
		return NewTCP(c.ID, c.Address), nil
	case TypeUnix:
		return NewUnixSock(c.ID, c.Address), nil
	case TypeWebsocket:
		return NewWebsocket(c.ID, c.Address), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, c.Type)
	}
}
