// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package bolt

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client = &mqtt.Client{ID: "zen"}

	pk = &packets.PublishPacket{
		FixedHeader: packets.FixedHeader{Type: packets.Publish},
		TopicName:   "a/b/c",
		Payload:     []byte("hello"),
	}
)

func newHook(t *testing.T) *Hook {
	t.Helper()
	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})

	err := h.Init(&Options{
		Path: filepath.Join(t.TempDir(), "journal.bolt"),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = h.Stop()
	})

	return h
}

func TestID(t *testing.T) {
	h := new(Hook)
	require.Equal(t, "bolt-db", h.ID())
}

func TestProvides(t *testing.T) {
	h := new(Hook)
	require.True(t, h.Provides(mqtt.OnPublished))
	require.True(t, h.Provides(mqtt.OnPublishReceived))
	require.True(t, h.Provides(mqtt.StoredMessages))
	require.False(t, h.Provides(mqtt.OnConnected))
	require.False(t, h.Provides(mqtt.OnPacketRead))
}

func TestInitBadConfig(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)

	err := h.Init(map[string]any{})
	require.ErrorIs(t, err, mqtt.ErrInvalidConfigType)
}

func TestInitUseDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() {
		_ = os.Chdir(wd)
	}()

	h := new(Hook)
	h.SetOpts(logger, nil)
	err = h.Init(nil)
	require.NoError(t, err)
	defer h.Stop()

	require.Equal(t, defaultDbFile, h.config.Path)
	require.Equal(t, defaultBucket, h.config.Bucket)
	require.Equal(t, defaultTimeout, h.config.Options.Timeout)
	require.FileExists(t, filepath.Join(dir, defaultDbFile))
}

func TestStopNoDB(t *testing.T) {
	h := new(Hook)
	require.NoError(t, h.Stop())
}

func TestOnPublishedThenStoredMessages(t *testing.T) {
	h := newHook(t)

	h.OnPublished(client, pk)
	h.OnPublishReceived(client, &packets.PublishPacket{TopicName: "d/e", Payload: []byte("in")})
	h.OnPublished(client, &packets.PublishPacket{TopicName: "f/g", Payload: []byte("second")})
	h.OnPublished(&mqtt.Client{ID: "other"}, pk)

	r, err := h.StoredMessages()
	require.NoError(t, err)
	require.Len(t, r, 3)

	require.Equal(t, storage.InboundKey, r[0].T)
	require.Equal(t, "d/e", r[0].TopicName)
	require.Equal(t, []byte("in"), r[0].Payload)

	require.Equal(t, storage.OutboundKey, r[1].T)
	require.Equal(t, pk.TopicName, r[1].TopicName)
	require.Equal(t, pk.Payload, r[1].Payload)
	require.Equal(t, client.ID, r[1].Client)
	require.Equal(t, pk.FixedHeader, r[1].FixedHeader)

	require.Equal(t, "f/g", r[2].TopicName)
}

func TestGetKv(t *testing.T) {
	h := newHook(t)

	in := storage.NewMessage(storage.OutboundKey, client.ID, pk)
	require.NoError(t, h.setKv(in.ID, &in))

	out := new(storage.Message)
	require.NoError(t, h.getKv(in.ID, out))
	require.Equal(t, in.ID, out.ID)
	require.Equal(t, in.Payload, out.Payload)

	err := h.getKv("OUT_zen:missing", out)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoredMessagesEmpty(t *testing.T) {
	h := newHook(t)

	r, err := h.StoredMessages()
	require.NoError(t, err)
	require.Empty(t, r)
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
