// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package pebble provides a pebble-backed journal of messages sent and received by a client.
package pebble

import (
	"bytes"
	"strings"

	pebbledb "github.com/cockroachdb/pebble"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

const (
	// defaultDbFile is the default file path for the pebble db file.
	defaultDbFile = ".pebble"
)

const (
	NoSync = "NoSync" // NoSync specifies the default write options for writes which do not synchronize to disk.
	Sync   = "Sync"   // Sync specifies the default write options for writes which synchronize to disk.
)

// keyUpperBound returns the upper bound for a given byte slice by incrementing the last byte.
// It returns nil if all bytes are incremented and equal to 0.
func keyUpperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Options contains configuration settings for the pebble DB instance.
type Options struct {
	Options *pebbledb.Options `yaml:"-" json:"-"`
	Mode    string            `yaml:"mode" json:"mode"`
	Path    string            `yaml:"path" json:"path"`
}

// Hook is a journal hook which stores published and received messages in a pebble DB file store.
type Hook struct {
	mqtt.HookBase
	config *Options               // options for configuring the pebble DB instance.
	db     *pebbledb.DB           // the pebble DB instance
	mode   *pebbledb.WriteOptions // mode holds the optional per-query parameters for Set operations
}

// ID returns the id of the hook.
func (h *Hook) ID() string {
	return "pebble-db"
}

// Provides indicates which hook methods this hook provides.
func (h *Hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnPublished,
		mqtt.OnPublishReceived,
		mqtt.StoredMessages,
	}, []byte{b})
}

// Init initializes and connects to the pebble instance.
func (h *Hook) Init(config any) error {
	if _, ok := config.(*Options); !ok && config != nil {
		return mqtt.ErrInvalidConfigType
	}

	if config == nil {
		h.config = new(Options)
	} else {
		h.config = config.(*Options)
	}

	if len(h.config.Path) == 0 {
		h.config.Path = defaultDbFile
	}

	if h.config.Options == nil {
		h.config.Options = &pebbledb.Options{}
	}

	h.mode = pebbledb.NoSync
	if strings.EqualFold(h.config.Mode, Sync) {
		h.mode = pebbledb.Sync
	}

	var err error
	h.db, err = pebbledb.Open(h.config.Path, h.config.Options)
	return err
}

// Stop closes the pebble instance.
func (h *Hook) Stop() error {
	if h.db == nil {
		return nil
	}

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
	_ = h.setKv(in.ID, &in)
}

// StoredMessages returns the journaled messages of the client, received before sent.
func (h *Hook) StoredMessages() (v []storage.Message, err error) {
	if h.db == nil {
		h.Log.Error("", "error", storage.ErrDBFileNotOpen)
		return
	}

	for _, t := range []string{storage.InboundKey, storage.OutboundKey} {
		prefix := []byte(storage.Prefix(t, h.Opts.ClientID))
		iter, err := h.db.NewIter(&pebbledb.IterOptions{
			LowerBound: prefix,
			UpperBound: keyUpperBound(prefix),
		})
		if err != nil {
			return v, err
		}

		for iter.First(); iter.Valid(); iter.Next() {
			item := storage.Message{}
			if err := item.UnmarshalBinary(iter.Value()); err == nil {
				v = append(v, item)
			}
		}

		if err := iter.Close(); err != nil {
			h.Log.Error("failed to close iterator", "error", err, "prefix", string(prefix))
			return v, err
		}
	}

	return v, nil
}

// setKv stores a key-value pair in the database.
func (h *Hook) setKv(k string, v storage.Serializable) error {
	bs, _ := v.MarshalBinary()
	err := h.db.Set([]byte(k), bs, h.mode)
	if err != nil {
		h.Log.Error("failed to update data", "error", err, "key", k)
		return err
	}
	return nil
}

// getKv retrieves the value associated with a key from the database.
func (h *Hook) getKv(k string, v storage.Serializable) error {
	value, closer, err := h.db.Get([]byte(k))
	if err != nil {
		return err
	}

	defer func() {
		if closer != nil {
			closer.Close()
		}
	}()
	return v.UnmarshalBinary(value)
}
