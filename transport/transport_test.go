// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package transport

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func TestNew(t *testing.T) {
	tt := []struct {
		config   Config
		protocol string
		id       string
	}{
		{config: Config{Type: TypeTCP, ID: "t1", Address: "localhost:1883"}, protocol: "tcp", id: "t1"},
		{config: Config{Address: "localhost:1883"}, protocol: "tcp", id: "tcp"},
		{config: Config{Type: TypeUnix, Address: "/tmp/mqtt.sock"}, protocol: "unix", id: "unix"},
		{config: Config{Type: TypeWebsocket, Address: "ws://localhost:1882"}, protocol: "ws", id: "ws"},
	}

	for _, wanted := range tt {
		d, err := New(wanted.config)
		require.NoError(t, err)
		require.Equal(t, wanted.protocol, d.Protocol())
		require.Equal(t, wanted.id, d.ID())
		require.Equal(t, wanted.config.Address, d.Address())
		require.NoError(t, d.Init(logger))
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(Config{Type: "quic", Address: "localhost:1883"})
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = New(Config{Type: TypeTCP})
	require.ErrorIs(t, err, ErrMissingAddress)
}
