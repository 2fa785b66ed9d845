// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
)

const (
	OnConnected byte = iota
	OnDisconnect
	OnPacketRead
	OnPacketEncode
	OnPacketSent
	OnSubscribed
	OnUnsubscribed
	OnPublish
	OnPublished
	OnPublishReceived
	StoredMessages
)

var (
	// ErrInvalidConfigType indicates a different Type of config value was expected to what was received.
	ErrInvalidConfigType = errors.New("invalid config type provided")

	// ErrRejectPacket may be returned by OnPacketRead and OnPublish to drop a packet.
	ErrRejectPacket = errors.New("packet rejected")
)

// Hook provides an interface of handlers for different events which occur
// during the lifecycle of the client.
type Hook interface {
	ID() string
	Provides(b byte) bool
	Init(config any) error
	Stop() error
	SetOpts(l *slog.Logger, o *HookOptions)
	OnConnected(cl *Client, pk *packets.ConnackPacket)
	OnDisconnect(cl *Client, err error)
	OnPacketRead(cl *Client, pk packets.Packet) (packets.Packet, error) // triggers when a packet is received from the broker, before it is handled
	OnPacketEncode(cl *Client, pk packets.Packet) packets.Packet        // modify a packet before it is byte-encoded and written to the broker
	OnPacketSent(cl *Client, pk packets.Packet, b []byte)               // triggers when packet bytes have been written to the broker
	OnSubscribed(cl *Client, pk *packets.SubscribePacket, codes []byte)
	OnUnsubscribed(cl *Client, pk *packets.UnsubscribePacket)
	OnPublish(cl *Client, pk *packets.PublishPacket) (*packets.PublishPacket, error)
	OnPublished(cl *Client, pk *packets.PublishPacket)
	OnPublishReceived(cl *Client, pk *packets.PublishPacket)
	StoredMessages() ([]storage.Message, error)
}

// HookOptions contains values which are inherited from the client on initialisation.
type HookOptions struct {
	ClientID string
}

// HookLoadConfig contains the hook and configuration as loaded from a configuration (usually file).
type HookLoadConfig struct {
	Hook   Hook
	Config any
}

// Hooks is a slice of Hook interfaces to be called in sequence.
type Hooks struct {
	Log        *slog.Logger   // a logger for the hook (from the client)
	internal   atomic.Value   // a slice of []Hook
	wg         sync.WaitGroup // a waitgroup for syncing hook shutdown
	qty        int64          // the number of hooks in use
	sync.Mutex                // a mutex for locking when adding hooks
}

// Len returns the number of hooks added.
func (h *Hooks) Len() int64 {
	return atomic.LoadInt64(&h.qty)
}

// Provides returns true if any one hook provides any of the requested hook methods.
func (h *Hooks) Provides(b ...byte) bool {
	for _, hook := range h.GetAll() {
		for _, hb := range b {
			if hook.Provides(hb) {
				return true
			}
		}
	}

	return false
}

// Add adds and initializes a new hook.
func (h *Hooks) Add(hook Hook, config any) error {
	h.Lock()
	defer h.Unlock()

	err := hook.Init(config)
	if err != nil {
		return fmt.Errorf("failed initialising %s hook: %w", hook.ID(), err)
	}

	i, ok := h.internal.Load().([]Hook)
	if !ok {
		i = []Hook{}
	}

	i = append(i, hook)
	h.internal.Store(i)
	atomic.AddInt64(&h.qty, 1)
	h.wg.Add(1)

	return nil
}

// GetAll returns a slice of all the hooks.
func (h *Hooks) GetAll() []Hook {
	i, ok := h.internal.Load().([]Hook)
	if !ok {
		return []Hook{}
	}

	return i
}

// Stop indicates all attached hooks to gracefully end.
func (h *Hooks) Stop() {
	go func() {
		for _, hook := range h.GetAll() {
			h.Log.Info("stopping hook", "hook", hook.ID())
			if err := hook.Stop(); err != nil {
				h.Log.Debug("problem stopping hook", "error", err, "hook", hook.ID())
			}

			h.wg.Done()
		}
	}()

	h.wg.Wait()
}

// OnConnected is called when the broker has accepted the connection.
func (h *Hooks) OnConnected(cl *Client, pk *packets.ConnackPacket) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnConnected) {
			hook.OnConnected(cl, pk)
		}
	}
}

// OnDisconnect is called when the connection ends for any reason. err is nil
// when the client disconnected cleanly.
func (h *Hooks) OnDisconnect(cl *Client, err error) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnDisconnect) {
			hook.OnDisconnect(cl, err)
		}
	}
}

// OnPacketRead is called when a packet is received from the broker. A hook returning
// ErrRejectPacket drops the packet; other errors are ignored.
func (h *Hooks) OnPacketRead(cl *Client, pk packets.Packet) (pkx packets.Packet, err error) {
	pkx = pk
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPacketRead) {
			npk, err := hook.OnPacketRead(cl, pkx)
			if err != nil && errors.Is(err, ErrRejectPacket) {
				h.Log.Debug("packet rejected", "hook", hook.ID(), "type", pkx.Header().Type)
				return pk, err
			} else if err != nil {
				continue
			}

			pkx = npk
		}
	}

	return
}

// OnPacketEncode is called immediately before a packet is encoded to be sent to the broker.
func (h *Hooks) OnPacketEncode(cl *Client, pk packets.Packet) packets.Packet {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPacketEncode) {
			pk = hook.OnPacketEncode(cl, pk)
		}
	}

	return pk
}

// OnPacketSent is called when a packet has been written to the broker.
func (h *Hooks) OnPacketSent(cl *Client, pk packets.Packet, b []byte) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPacketSent) {
			hook.OnPacketSent(cl, pk, b)
		}
	}
}

// OnSubscribed is called when the broker has acknowledged a subscription.
func (h *Hooks) OnSubscribed(cl *Client, pk *packets.SubscribePacket, codes []byte) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnSubscribed) {
			hook.OnSubscribed(cl, pk, codes)
		}
	}
}

// OnUnsubscribed is called when the broker has acknowledged an unsubscribe.
func (h *Hooks) OnUnsubscribed(cl *Client, pk *packets.UnsubscribePacket) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnUnsubscribed) {
			hook.OnUnsubscribed(cl, pk)
		}
	}
}

// OnPublish is called before a publish packet is sent. A hook may modify the packet,
// or return ErrRejectPacket to drop it.
func (h *Hooks) OnPublish(cl *Client, pk *packets.PublishPacket) (pkx *packets.PublishPacket, err error) {
	pkx = pk
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPublish) {
			npk, err := hook.OnPublish(cl, pkx)
			if err != nil {
				if errors.Is(err, ErrRejectPacket) {
					h.Log.Debug("publish packet rejected", "hook", hook.ID(), "topic", pkx.TopicName)
					return pk, err
				}
				h.Log.Error("publish packet error", "error", err, "hook", hook.ID(), "topic", pkx.TopicName)
				return pk, err
			}

			pkx = npk
		}
	}

	return
}

// OnPublished is called when a publish packet has been written to the broker.
func (h *Hooks) OnPublished(cl *Client, pk *packets.PublishPacket) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPublished) {
			hook.OnPublished(cl, pk)
		}
	}
}

// OnPublishReceived is called when a publish packet is received from the broker,
// before it is routed to the subscription handlers.
func (h *Hooks) OnPublishReceived(cl *Client, pk *packets.PublishPacket) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnPublishReceived) {
			hook.OnPublishReceived(cl, pk)
		}
	}
}

// StoredMessages returns all journaled messages from every hook which provides a store.
func (h *Hooks) StoredMessages() (v []storage.Message, err error) {
	for _, hook := range h.GetAll() {
		if hook.Provides(StoredMessages) {
			msgs, err := hook.StoredMessages()
			if err != nil {
				h.Log.Error("failed to load stored messages", "error", err, "hook", hook.ID())
				return v, fmt.Errorf("failed to load messages; %s hook: %w", hook.ID(), err)
			}

			v = append(v, msgs...)
		}
	}

	return v, nil
}

// HookBase provides a set of default methods for each hook. It should be embedded in
// all hooks.
type HookBase struct {
	Hook
	Log  *slog.Logger
	Opts *HookOptions
}

// ID returns the ID of the hook.
func (h *HookBase) ID() string {
	return "base"
}

// Provides indicates which methods a hook provides. The default is none - this method
// should be overridden by the embedding hook.
func (h *HookBase) Provides(b byte) bool {
	return false
}

// Init performs any pre-start initializations for the hook, such as connecting to databases
// or opening files.
func (h *HookBase) Init(config any) error {
	return nil
}

// SetOpts is called by the client to propagate internal values and generally should
// not be called manually.
func (h *HookBase) SetOpts(l *slog.Logger, opts *HookOptions) {
	h.Log = l
	h.Opts = opts
}

// Stop is called to gracefully shut down the hook.
func (h *HookBase) Stop() error {
	return nil
}

// OnConnected is called when the broker has accepted the connection.
func (h *HookBase) OnConnected(cl *Client, pk *packets.ConnackPacket) {}

// OnDisconnect is called when the connection ends for any reason.
func (h *HookBase) OnDisconnect(cl *Client, err error) {}

// OnPacketRead is called when a packet is received.
func (h *HookBase) OnPacketRead(cl *Client, pk packets.Packet) (packets.Packet, error) {
	return pk, nil
}

// OnPacketEncode is called before a packet is byte-encoded and written to the broker.
func (h *HookBase) OnPacketEncode(cl *Client, pk packets.Packet) packets.Packet {
	return pk
}

// OnPacketSent is called immediately after a packet is written to the broker.
func (h *HookBase) OnPacketSent(cl *Client, pk packets.Packet, b []byte) {}

// OnSubscribed is called when the broker has acknowledged a subscription.
func (h *HookBase) OnSubscribed(cl *Client, pk *packets.SubscribePacket, codes []byte) {}

// OnUnsubscribed is called when the broker has acknowledged an unsubscribe.
func (h *HookBase) OnUnsubscribed(cl *Client, pk *packets.UnsubscribePacket) {}

// OnPublish is called before a publish packet is sent.
func (h *HookBase) OnPublish(cl *Client, pk *packets.PublishPacket) (*packets.PublishPacket, error) {
	return pk, nil
}

// OnPublished is called when a publish packet has been written to the broker.
func (h *HookBase) OnPublished(cl *Client, pk *packets.PublishPacket) {}

// OnPublishReceived is called when a publish packet is received from the broker.
func (h *HookBase) OnPublishReceived(cl *Client, pk *packets.PublishPacket) {}

// StoredMessages returns all journaled messages.
func (h *HookBase) StoredMessages() (v []storage.Message, err error) {
	return
}
