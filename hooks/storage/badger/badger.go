// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package badger provides a badger-backed journal of messages sent and received by a client.
package badger

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

const (
	// defaultDbFile is the default file path for the badger db file.
	defaultDbFile         = ".badger"
	defaultGcInterval     = 5 * 60 // gc interval in seconds
	defaultGcDiscardRatio = 0.5
)

// Options contains configuration settings for the BadgerDB instance.
type Options struct {
	Options *badgerdb.Options `yaml:"-" json:"-"`
	Path    string            `yaml:"path" json:"path"`
	// GcDiscardRatio must be in the range (0.0, 1.0), both endpoints excluded,
	// otherwise it is set to the default value of 0.5.
	GcDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio"`
	GcInterval     int64   `yaml:"gc_interval" json:"gc_interval"`
}

// Hook is a journal hook which stores published and received messages in a BadgerDB file store.
type Hook struct {
	mqtt.HookBase
	config   *Options      // options for configuring the BadgerDB instance.
	gcTicker *time.Ticker  // ticker for BadgerDB garbage collection.
	gcDone   chan struct{} // closed to stop the gc loop.
	db       *badgerdb.DB  // the BadgerDB instance.
}

// ID returns the id of the hook.
func (h *Hook) ID() string {
	return "badger-db"
}

// Provides indicates which hook methods this hook provides.
func (h *Hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnPublished,
		mqtt.OnPublishReceived,
		mqtt.StoredMessages,
	}, []byte{b})
}

// gcLoop periodically reclaims space in the value log files.
// Refer to: https://dgraph.io/docs/badger/get-started/#garbage-collection
func (h *Hook) gcLoop(db *badgerdb.DB, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-h.gcTicker.C:
			for db.RunValueLogGC(h.config.GcDiscardRatio) == nil {
			}
		}
	}
}

// Init initializes and connects to the badger instance.
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

	if h.config.GcInterval == 0 {
		h.config.GcInterval = defaultGcInterval
	}

	if h.config.GcDiscardRatio <= 0.0 || h.config.GcDiscardRatio >= 1.0 {
		h.config.GcDiscardRatio = defaultGcDiscardRatio
	}

	if h.config.Options == nil {
		defaultOpts := badgerdb.DefaultOptions(h.config.Path)
		h.config.Options = &defaultOpts
	}
	h.config.Options.Logger = h

	var err error
	h.db, err = badgerdb.Open(*h.config.Options)
	if err != nil {
		return err
	}

	h.gcDone = make(chan struct{})
	h.gcTicker = time.NewTicker(time.Duration(h.config.GcInterval) * time.Second)
	go h.gcLoop(h.db, h.gcDone)

	return nil
}

// Stop closes the badger instance.
func (h *Hook) Stop() error {
	if h.db == nil {
		return nil
	}

	h.gcTicker.Stop()
	close(h.gcDone)

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
		err = h.iterKv(storage.Prefix(t, h.Opts.ClientID), func(value []byte) error {
			obj := storage.Message{}
			if err := obj.UnmarshalBinary(value); err != nil {
				return err
			}
			v = append(v, obj)
			return nil
		})
		if err != nil {
			return
		}
	}

	return
}

// Errorf satisfies the badger interface for an error logger.
func (h *Hook) Errorf(m string, v ...any) {
	h.Log.Error(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...), "v", v)
}

// Warningf satisfies the badger interface for a warning logger.
func (h *Hook) Warningf(m string, v ...any) {
	h.Log.Warn(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...), "v", v)
}

// Infof satisfies the badger interface for an info logger.
func (h *Hook) Infof(m string, v ...any) {
	h.Log.Info(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...), "v", v)
}

// Debugf satisfies the badger interface for a debug logger.
func (h *Hook) Debugf(m string, v ...any) {
	h.Log.Debug(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...), "v", v)
}

// setKv stores a key-value pair in the database.
func (h *Hook) setKv(k string, v storage.Serializable) error {
	err := h.db.Update(func(txn *badgerdb.Txn) error {
		data, _ := v.MarshalBinary()
		return txn.Set([]byte(k), data)
	})
	if err != nil {
		h.Log.Error("failed to upsert data", "error", err, "key", k)
	}
	return err
}

// getKv retrieves the value associated with a key from the database.
func (h *Hook) getKv(k string, v storage.Serializable) error {
	return h.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(k))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return v.UnmarshalBinary(value)
	})
}

// iterKv iterates over key-value pairs with keys having the specified prefix in the database.
func (h *Hook) iterKv(prefix string, visit func([]byte) error) error {
	err := h.db.View(func(txn *badgerdb.Txn) error {
		iterator := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer iterator.Close()

		for iterator.Seek([]byte(prefix)); iterator.ValidForPrefix([]byte(prefix)); iterator.Next() {
			value, err := iterator.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			if err := visit(value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.Log.Error("failed to find data", "error", err, "prefix", prefix)
	}
	return err
}
