// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package badger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client = &mqtt.Client{ID: "zen"}

	pk = &packets.PublishPacket{
		FixedHeader: packets.FixedHeader{Type: packets.Publish, Flags: 0x02},
		TopicName:   "a/b/c",
		Payload:     []byte("hello"),
	}
)

func newHook(t *testing.T) *Hook {
	t.Helper()
	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})

	err := h.Init(&Options{
		Path: filepath.Join(t.TempDir(), "journal.badger"),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = h.Stop()
	})

	return h
}

func TestID(t *testing.T) {
	h := new(Hook)
	require.Equal(t, "badger-db", h.ID())
}

func TestProvides(t *testing.T) {
	h := new(Hook)
	require.True(t, h.Provides(mqtt.OnPublished))
	require.True(t, h.Provides(mqtt.OnPublishReceived))
	require.True(t, h.Provides(mqtt.StoredMessages))
	require.False(t, h.Provides(mqtt.OnDisconnect))
	require.False(t, h.Provides(mqtt.OnPacketSent))
}

func TestInitBadConfig(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)

	err := h.Init(map[string]any{})
	require.ErrorIs(t, err, mqtt.ErrInvalidConfigType)
}

func TestInitUseDefaults(t *testing.T) {
	h := newHook(t)
	require.Equal(t, int64(defaultGcInterval), h.config.GcInterval)
	require.Equal(t, defaultGcDiscardRatio, h.config.GcDiscardRatio)
	require.NotNil(t, h.config.Options)
}

func TestInitGcDiscardRatioOutOfRange(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)

	err := h.Init(&Options{
		Path:           filepath.Join(t.TempDir(), "journal.badger"),
		GcDiscardRatio: 1.5,
		GcInterval:     1,
	})
	require.NoError(t, err)
	defer h.Stop()

	require.Equal(t, defaultGcDiscardRatio, h.config.GcDiscardRatio)
	require.Equal(t, int64(1), h.config.GcInterval)
}

func TestStopNoDB(t *testing.T) {
	h := new(Hook)
	require.NoError(t, h.Stop())
}

func TestOnPublishedThenStoredMessages(t *testing.T) {
	h := newHook(t)

	h.OnPublished(client, pk)
	h.OnPublishReceived(client, &packets.PublishPacket{TopicName: "d/e", Payload: []byte("in")})
	h.OnPublishReceived(&mqtt.Client{ID: "other"}, pk)

	r, err := h.StoredMessages()
	require.NoError(t, err)
	require.Len(t, r, 2)

	require.Equal(t, storage.InboundKey, r[0].T)
	require.Equal(t, "d/e", r[0].TopicName)

	require.Equal(t, storage.OutboundKey, r[1].T)
	require.Equal(t, pk.TopicName, r[1].TopicName)
	require.Equal(t, pk.Payload, r[1].Payload)
	require.Equal(t, byte(1), r[1].FixedHeader.Qos())
	require.Equal(t, client.ID, r[1].Client)
}

func TestGetKv(t *testing.T) {
	h := newHook(t)

	in := storage.NewMessage(storage.InboundKey, client.ID, pk)
	require.NoError(t, h.setKv(in.ID, &in))

	out := new(storage.Message)
	require.NoError(t, h.getKv(in.ID, out))
	require.Equal(t, in.TopicName, out.TopicName)

	err := h.getKv("IN_zen:missing", out)
	require.ErrorIs(t, err, badgerdb.ErrKeyNotFound)
}

func TestOnPublishedNoDB(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})
	h.OnPublished(client, pk)
	h.OnPublishReceived(client, pk)
}

func TestStoredMessagesNoDB(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})
	v, err := h.StoredMessages()
	require.Empty(t, v)
	require.NoError(t, err)
}

func TestLoggers(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)
	h.Errorf("Test %s\n", "error")
	h.Warningf("Test %s\n", "warning")
	h.Infof("Test %s\n", "info")
	h.Debugf("Test %s\n", "debug")
}
