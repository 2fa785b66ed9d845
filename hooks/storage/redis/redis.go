// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package redis provides a redis-backed journal of messages sent and received by a client.
package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

// defaultAddr is the default address to the redis service.
const defaultAddr = "localhost:6379"

// defaultHPrefix is a prefix to better identify hsets created by the journal.
const defaultHPrefix = "mqutekitty-"

// Options contains configuration settings for the redis instance.
type Options struct {
	HPrefix string         `yaml:"h_prefix" json:"h_prefix"`
	Options *redis.Options `yaml:"-" json:"-"`
}

// Hook is a journal hook which stores published and received messages in redis hsets,
// one hset per client and direction.
type Hook struct {
	mqtt.HookBase
	config *Options        // options for connecting to the Redis instance.
	db     *redis.Client   // the Redis instance
	ctx    context.Context // a context for the connection
}

// ID returns the id of the hook.
func (h *Hook) ID() string {
	return "redis-db"
}

// Provides indicates which hook methods this hook provides.
func (h *Hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnPublished,
		mqtt.OnPublishReceived,
		mqtt.StoredMessages,
	}, []byte{b})
}

// hKey returns a hash set key with a unique prefix.
func (h *Hook) hKey(s string) string {
	return h.config.HPrefix + s
}

// Init initializes and connects to the redis service.
func (h *Hook) Init(config any) error {
	if _, ok := config.(*Options); !ok && config != nil {
		return mqtt.ErrInvalidConfigType
	}

	h.ctx = context.Background()

	if config == nil {
		config = new(Options)
	}

	h.config = config.(*Options)
	if h.config.Options == nil {
		h.config.Options = &redis.Options{
			Addr: defaultAddr,
		}
	}

	if h.config.HPrefix == "" {
		h.config.HPrefix = defaultHPrefix
	}

	h.Log.Info(
		"connecting to redis service",
		"address", h.config.Options.Addr,
		"username", h.config.Options.Username,
		"password-len", len(h.config.Options.Password),
		"db", h.config.Options.DB,
	)

	h.db = redis.NewClient(h.config.Options)
	_, err := h.db.Ping(h.ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping service: %w", err)
	}

	h.Log.Info("connected to redis service")

	return nil
}

// Stop closes the redis connection.
func (h *Hook) Stop() error {
	if h.db == nil {
		return nil
	}

	h.Log.Info("disconnecting from redis service")
	err := h.db.Close()
	h.db = nil
	return err
}

// OnPublished journals a message published by the client.
func (h *Hook) OnPublished(cl *mqtt.Client, pk *packets.PublishPacket) {
	h.journal(storage.OutboundKey, cl, pk)
}

// OnPublishReceived journals a message received from the broker.
func (h *Hook) OnPublishReceived(cl *mqtt.Client, pk *packets.PublishPacket) {
	h.journal(storage.InboundKey, cl, pk)
}

func (h *Hook) journal(t string, cl *mqtt.Client, pk *packets.PublishPacket) {
	if h.db == nil {
		h.Log.Error("", "error", storage.ErrDBFileNotOpen)
		return
	}

	in := storage.NewMessage(t, cl.ID, pk)
	data, err := msgpack.Marshal(&in)
	if err != nil {
		h.Log.Error("failed to encode message", "error", err, "key", in.ID)
		return
	}

	err = h.db.HSet(h.ctx, h.hKey(storage.Prefix(t, cl.ID)), in.ID, data).Err()
	if err != nil {
		h.Log.Error("failed to hset message data", "error", err, "key", in.ID)
	}
}

// StoredMessages returns the journaled messages of the client, received before sent.
// Messages of each direction are returned in the order they were journaled.
func (h *Hook) StoredMessages() (v []storage.Message, err error) {
	if h.db == nil {
		h.Log.Error("", "error", storage.ErrDBFileNotOpen)
		return
	}

	for _, t := range []string{storage.InboundKey, storage.OutboundKey} {
		rows, err := h.db.HGetAll(h.ctx, h.hKey(storage.Prefix(t, h.Opts.ClientID))).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			h.Log.Error("failed to HGetAll message data", "error", err)
			return v, err
		}

		msgs := make([]storage.Message, 0, len(rows))
		for _, row := range rows {
			var m storage.Message
			if err = msgpack.Unmarshal([]byte(row), &m); err != nil {
				h.Log.Error("failed to decode message data", "error", err, "data", row)
				continue
			}
			msgs = append(msgs, m)
		}

		sort.Slice(msgs, func(i, j int) bool {
			return msgs[i].ID < msgs[j].ID
		})
		v = append(v, msgs...)
	}

	return v, nil
}
