// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package redis

import (
	"log/slog"
	"os"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client = &mqtt.Client{ID: "zen"}

	pk = &packets.PublishPacket{
		FixedHeader: packets.FixedHeader{Type: packets.Publish, Flags: 0x01},
		TopicName:   "a/b/c",
		Payload:     []byte("hello"),
	}
)

func newHook(t *testing.T, addr string) *Hook {
	t.Helper()
	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})

	err := h.Init(&Options{
		Options: &redis.Options{
			Addr: addr,
		},
	})
	require.NoError(t, err)

	return h
}

func teardown(t *testing.T, h *Hook) {
	if h.db != nil {
		err := h.db.FlushAll(h.ctx).Err()
		require.NoError(t, err)
		require.NoError(t, h.Stop())
	}
}

func TestID(t *testing.T) {
	h := new(Hook)
	require.Equal(t, "redis-db", h.ID())
}

func TestProvides(t *testing.T) {
	h := new(Hook)
	require.True(t, h.Provides(mqtt.OnPublished))
	require.True(t, h.Provides(mqtt.OnPublishReceived))
	require.True(t, h.Provides(mqtt.StoredMessages))
	require.False(t, h.Provides(mqtt.OnUnsubscribed))
}

func TestHKey(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	h := newHook(t, s.Addr())
	defer teardown(t, h)
	require.Equal(t, defaultHPrefix+"test", h.hKey("test"))
}

func TestInitUseDefaults(t *testing.T) {
	s := miniredis.NewMiniRedis()
	err := s.StartAddr(defaultAddr)
	require.NoError(t, err)
	defer s.Close()

	h := new(Hook)
	h.SetOpts(logger, &mqtt.HookOptions{ClientID: client.ID})
	err = h.Init(nil)
	require.NoError(t, err)
	defer teardown(t, h)

	require.Equal(t, defaultHPrefix, h.config.HPrefix)
	require.Equal(t, defaultAddr, h.config.Options.Addr)
}

func TestInitBadConfig(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)

	err := h.Init(map[string]any{})
	require.ErrorIs(t, err, mqtt.ErrInvalidConfigType)
}

func TestInitBadAddr(t *testing.T) {
	h := new(Hook)
	h.SetOpts(logger, nil)
	err := h.Init(&Options{
		Options: &redis.Options{
			Addr: "127.0.0.1:1",
		},
	})
	require.Error(t, err)
}

func TestStopNoDB(t *testing.T) {
	h := new(Hook)
	require.NoError(t, h.Stop())
}

func TestOnPublishedThenStoredMessages(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	h := newHook(t, s.Addr())
	defer teardown(t, h)

	h.OnPublished(client, pk)
	h.OnPublished(client, &packets.PublishPacket{TopicName: "a/b/d", Payload: []byte("second")})
	h.OnPublishReceived(client, &packets.PublishPacket{TopicName: "d/e", Payload: []byte("in")})
	h.OnPublishReceived(&mqtt.Client{ID: "other"}, pk)

	require.True(t, s.Exists(defaultHPrefix+storage.Prefix(storage.OutboundKey, client.ID)))
	require.True(t, s.Exists(defaultHPrefix+storage.Prefix(storage.InboundKey, "other")))

	r, err := h.StoredMessages()
	require.NoError(t, err)
	require.Len(t, r, 3)

	require.Equal(t, storage.InboundKey, r[0].T)
	require.Equal(t, "d/e", r[0].TopicName)

	require.Equal(t, storage.OutboundKey, r[1].T)
	require.Equal(t, pk.TopicName, r[1].TopicName)
	require.Equal(t, pk.Payload, r[1].Payload)
	require.Equal(t, pk.FixedHeader, r[1].FixedHeader)
	require.True(t, r[1].FixedHeader.Retain())

	require.Equal(t, "a/b/d", r[2].TopicName)
}

func TestStoredMessagesBadData(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	h := newHook(t, s.Addr())
	defer teardown(t, h)

	s.HSet(defaultHPrefix+storage.Prefix(storage.OutboundKey, client.ID), "bad", "{")

	r, err := h.StoredMessages()
	require.NoError(t, err)
	require.Empty(t, r)
}

func TestStoredMessagesWrongType(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	h := newHook(t, s.Addr())
	defer teardown(t, h)

	err := s.Set(defaultHPrefix+storage.Prefix(storage.InboundKey, client.ID), "string")
	require.NoError(t, err)

	_, err = h.StoredMessages()
	require.Error(t, err)
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
