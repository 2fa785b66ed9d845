// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package bolt provides a bolt-backed journal of messages sent and received by a client.
package bolt

import (
	"bytes"
	"errors"
	"time"

	"go.etcd.io/bbolt"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrKeyNotFound    = errors.New("key not found")
)

const (
	// defaultDbFile is the default file path for the boltdb file.
	defaultDbFile = ".bolt"

	// defaultTimeout is the default time to hold a connection to the file.
	defaultTimeout = 250 * time.Millisecond

	defaultBucket = "mqutekitty"
)

// Options contains configuration settings for the bolt instance.
type Options struct {
	Options *bbolt.Options `yaml:"-" json:"-"`
	Bucket  string         `yaml:"bucket" json:"bucket"`
	Path    string         `yaml:"path" json:"path"`
}

// Hook is a journal hook which stores published and received messages in a bolt file.
type Hook struct {
	mqtt.HookBase
	config *Options  // options for configuring the boltdb instance.
	db     *bbolt.DB // the boltdb instance.
}

// ID returns the id of the hook.
func (h *Hook) ID() string {
	return "bolt-db"
}

// Provides indicates which hook methods this hook provides.
func (h *Hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnPublished,
		mqtt.OnPublishReceived,
		mqtt.StoredMessages,
	}, []byte{b})
}

// Init initializes and connects to the boltdb instance.
func (h *Hook) Init(config any) error {
	if _, ok := config.(*Options); !ok && config != nil {
		return mqtt.ErrInvalidConfigType
	}

	if config == nil {
		config = new(Options)
	}

	h.config = config.(*Options)
	if h.config.Options == nil {
		h.config.Options = &bbolt.Options{
			Timeout: defaultTimeout,
		}
	}
	if len(h.config.Path) == 0 {
		h.config.Path = defaultDbFile
	}

	if len(h.config.Bucket) == 0 {
		h.config.Bucket = defaultBucket
	}

	var err error
	h.db, err = bbolt.Open(h.config.Path, 0600, h.config.Options)
	if err != nil {
		return err
	}

	err = h.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(h.config.Bucket))
		return err
	})
	return err
}

// Stop closes the boltdb instance.
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

// journal writes a message of direction t to the store.
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

// setKv stores a key-value pair in the database.
func (h *Hook) setKv(k string, v storage.Serializable) error {
	err := h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(h.config.Bucket))
		data, _ := v.MarshalBinary()
		return bucket.Put([]byte(k), data)
	})
	if err != nil {
		h.Log.Error("failed to upsert data", "error", err, "key", k)
	}
	return err
}

// getKv retrieves the value associated with a key from the database.
func (h *Hook) getKv(k string, v storage.Serializable) error {
	return h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(h.config.Bucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		value := bucket.Get([]byte(k))
		if value == nil {
			return ErrKeyNotFound
		}

		return v.UnmarshalBinary(value)
	})
}

// iterKv iterates over key-value pairs with keys having the specified prefix in the database.
func (h *Hook) iterKv(prefix string, visit func([]byte) error) error {
	err := h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(h.config.Bucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		c := bucket.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if err := visit(v); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		h.Log.Error("failed to iterate data", "error", err, "prefix", prefix)
	}
	return err
}
