// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package debug provides a hook which logs the packets flowing through a client.
package debug

import (
	"fmt"
	"log/slog"
	"strings"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/packets"
)

// Options contains configuration settings for the debug output.
type Options struct {
	ShowPacketData bool `yaml:"show_packet_data" json:"show_packet_data"` // include decoded packet data (default false)
	ShowPings      bool `yaml:"show_pings" json:"show_pings"`             // show ping requests and responses (default false)
	ShowPasswords  bool `yaml:"show_passwords" json:"show_passwords"`     // show connecting user passwords (default false)
}

// Hook is a debugging hook which logs additional low-level information from the client.
type Hook struct {
	mqtt.HookBase
	config *Options
	Log    *slog.Logger
}

// ID returns the ID of the hook.
func (h *Hook) ID() string {
	return "debug"
}

// Provides indicates that this hook provides all methods.
func (h *Hook) Provides(b byte) bool {
	return true
}

// Init is called when the hook is initialized.
func (h *Hook) Init(config any) error {
	if _, ok := config.(*Options); !ok && config != nil {
		return mqtt.ErrInvalidConfigType
	}

	if config == nil {
		config = new(Options)
	}

	h.config = config.(*Options)

	return nil
}

// SetOpts is called when the hook receives inheritable client parameters.
func (h *Hook) SetOpts(l *slog.Logger, opts *mqtt.HookOptions) {
	h.Log = l
	h.Log.Debug("", "method", "SetOpts", "opts", opts)
}

// Stop is called when the hook is stopped.
func (h *Hook) Stop() error {
	h.Log.Debug("", "method", "Stop")
	return nil
}

// OnConnected is called when the broker accepts the connection.
func (h *Hook) OnConnected(cl *mqtt.Client, pk *packets.ConnackPacket) {
	h.Log.Debug("connected", "method", "OnConnected", "client", cl.ID, "session_present", pk.SessionPresent())
}

// OnDisconnect is called when the connection closes.
func (h *Hook) OnDisconnect(cl *mqtt.Client, err error) {
	h.Log.Debug("disconnected", "method", "OnDisconnect", "client", cl.ID, "error", err)
}

// OnPacketRead is called when a new packet is received from the broker.
func (h *Hook) OnPacketRead(cl *mqtt.Client, pk packets.Packet) (packets.Packet, error) {
	if isPing(pk) && !h.config.ShowPings {
		return pk, nil
	}

	h.Log.Debug(fmt.Sprintf("%s << %s", strings.ToUpper(pk.Header().Type.String()), cl.ID), "m", h.packetMeta(pk))

	return pk, nil
}

// OnPacketSent is called when a packet is sent to the broker.
func (h *Hook) OnPacketSent(cl *mqtt.Client, pk packets.Packet, b []byte) {
	if isPing(pk) && !h.config.ShowPings {
		return
	}

	h.Log.Debug(fmt.Sprintf("%s >> %s", strings.ToUpper(pk.Header().Type.String()), cl.ID), "m", h.packetMeta(pk))
}

// OnSubscribed is called when the broker acknowledges a subscription.
func (h *Hook) OnSubscribed(cl *mqtt.Client, pk *packets.SubscribePacket, codes []byte) {
	h.Log.Debug("subscribed", "method", "OnSubscribed", "client", cl.ID, "m", h.packetMeta(pk), "codes", codes)
}

// OnUnsubscribed is called when the broker acknowledges an unsubscribe.
func (h *Hook) OnUnsubscribed(cl *mqtt.Client, pk *packets.UnsubscribePacket) {
	h.Log.Debug("unsubscribed", "method", "OnUnsubscribed", "client", cl.ID, "m", h.packetMeta(pk))
}

// OnPublished is called when a message has been written to the broker.
func (h *Hook) OnPublished(cl *mqtt.Client, pk *packets.PublishPacket) {
	h.Log.Debug("published", "method", "OnPublished", "client", cl.ID, "m", h.packetMeta(pk))
}

// OnPublishReceived is called when a message is received from the broker.
func (h *Hook) OnPublishReceived(cl *mqtt.Client, pk *packets.PublishPacket) {
	h.Log.Debug("message received", "method", "OnPublishReceived", "client", cl.ID, "m", h.packetMeta(pk))
}

func isPing(pk packets.Packet) bool {
	t := pk.Header().Type
	return t == packets.Pingreq || t == packets.Pingresp
}

// packetMeta adds additional type-specific metadata to the debug logs.
func (h *Hook) packetMeta(pk packets.Packet) map[string]any {
	m := map[string]any{}
	switch p := pk.(type) {
	case *packets.ConnectPacket:
		m["id"] = p.ClientIdentifier
		m["clean"] = p.ConnectFlags.CleanSession()
		m["keepalive"] = p.Keepalive
		m["version"] = p.ProtocolLevel
		m["username"] = p.Username
		if h.config.ShowPasswords {
			m["password"] = p.Password
		}
		if p.ConnectFlags.Will() {
			m["will_topic"] = p.WillTopic
			m["will_payload"] = string(p.WillMessage)
		}
	case *packets.ConnackPacket:
		m["session_present"] = p.SessionPresent()
		m["reason"] = int(p.ReturnCode)
	case *packets.PublishPacket:
		m["topic"] = p.TopicName
		m["payload"] = string(p.Payload)
		m["raw"] = p.Payload
		m["qos"] = p.Qos()
		m["retain"] = p.Retain()
		m["id"] = p.PacketID
	case *packets.SubscribePacket:
		f := map[string]int{}
		for _, v := range p.Filters {
			f[v.Filter] = int(v.Qos)
		}
		m["id"] = p.PacketID
		m["filters"] = f
	case *packets.UnsubscribePacket:
		m["id"] = p.PacketID
		m["filters"] = append([]string{}, p.Filters...)
	case *packets.SubackPacket:
		r := []int{}
		for _, v := range p.ReturnCodes {
			r = append(r, int(v))
		}
		m["id"] = p.PacketID
		m["reasons"] = r
	case *packets.UnsubackPacket:
		m["id"] = p.PacketID
	case *packets.RawPacket:
		if id, err := p.PacketID(); err == nil {
			m["id"] = id
		}
		m["size"] = len(p.Body)
	}

	if h.config.ShowPacketData {
		m["packet"] = pk
	}

	return m
}
