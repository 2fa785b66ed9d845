// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package mqtt is an MQTT v3.1.1 client built on the packets codec.
package mqtt

import (
	"errors"
	"log/slog"
	"os"

	"github.com/rs/xid"

	"github.com/mqutekitty/client/packets"
	"github.com/mqutekitty/client/transport"
)

const (
	Version = "1.0.0" // the current client version.

	defaultKeepalive      = 60               // seconds between PINGREQ packets
	defaultConnectTimeout = 10               // seconds to wait for CONNACK
	defaultWriteQueueSize = 64               // outbound packets buffered for the writer
	defaultReadBufferSize = 1024 * 2         // size of the bufio.Reader on the connection
	defaultAddress        = "localhost:1883" // broker address when none is configured
)

var (
	ErrConnection        = errors.New("connection error")                   // the transport failed to dial or carry a packet
	ErrConnectionLost    = errors.New("connection lost")                    // the connection was lost after it was established
	ErrNotConnected      = errors.New("client not connected")               // an operation needs an established connection
	ErrAlreadyConnected  = errors.New("client already connected")           // Connect was called on a connected client
	ErrUnexpectedPacket  = errors.New("unexpected packet")                  // the broker sent a packet out of sequence
	ErrConnackTimeout    = errors.New("timed out waiting for connack")      // the broker did not answer CONNECT in time
	ErrPacketTooLarge    = errors.New("packet exceeds maximum packet size") // an inbound packet exceeds MaximumPacketSize
	ErrSubackMismatch    = errors.New("suback return codes do not match")   // suback carried a different number of codes than filters
	ErrPingTimeout       = errors.New("timed out waiting for pingresp")     // the broker did not answer PINGREQ in time
	ErrOptionsUnreadable = errors.New("unable to read options from bytes")  // config data could not be parsed
)

// Handler is called for each publish packet routed to a subscription. Handlers run on
// the reader goroutine and must not wait on SUBACK or UNSUBACK from within the call.
type Handler func(cl *Client, pk *packets.PublishPacket)

// Will contains the last will and testament details for the connection.
type Will struct {
	Topic   string `yaml:"topic" json:"topic"`
	Payload []byte `yaml:"payload" json:"payload"`
	Qos     byte   `yaml:"qos" json:"qos"`
	Retain  bool   `yaml:"retain" json:"retain"`
}

// Options contains configurable options for the client.
type Options struct {
	// ClientID is the client identifier sent in CONNECT. A random xid is used when empty.
	ClientID string `yaml:"client_id" json:"client_id"`

	// Username and Password are sent in CONNECT. The password is ignored without a username.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// CleanSession asks the broker to discard any previous session state.
	CleanSession bool `yaml:"clean_session" json:"clean_session"`

	// Keepalive is the keepalive interval in seconds. A zero value uses the default of 60,
	// and a negative value disables the keepalive loop.
	Keepalive int `yaml:"keepalive" json:"keepalive"`

	// ProtocolLevel is the protocol revision requested from the broker (3, 4 or 5).
	ProtocolLevel byte `yaml:"protocol_level" json:"protocol_level"`

	// Will is the last will message published by the broker if the connection is lost.
	Will *Will `yaml:"will" json:"will"`

	// ConnectTimeout is the number of seconds to wait for the CONNACK packet.
	ConnectTimeout int `yaml:"connect_timeout" json:"connect_timeout"`

	// WriteQueueSize is the number of outbound packets which may wait for the writer.
	WriteQueueSize int `yaml:"write_queue_size" json:"write_queue_size"`

	// ReadBufferSize specifies the size of the connection *bufio.Reader read buffer.
	ReadBufferSize int `yaml:"read_buffer_size" json:"read_buffer_size"`

	// MaximumPacketSize is the largest inbound packet accepted, in bytes. Zero is unlimited.
	MaximumPacketSize uint32 `yaml:"maximum_packet_size" json:"maximum_packet_size"`

	// Transport configures the dialer used to reach the broker.
	Transport transport.Config `yaml:"transport" json:"transport"`

	// Hooks specifies any hooks which should be dynamically added on connect. Used when setting hooks by config.
	Hooks []HookLoadConfig `yaml:"-" json:"-"`

	// Dialer overrides Transport with a ready-made dialer.
	Dialer transport.Dialer `yaml:"-" json:"-"`

	// OnMessage receives publish packets which match no subscription handler.
	OnMessage Handler `yaml:"-" json:"-"`

	// Logger specifies a custom configured implementation of log/slog to override
	// the clients default logger configuration. If you wish to change the log level,
	// of the default logger, you can do so by setting:
	// level := new(slog.LevelVar)
	// opts.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
	// 	Level: level,
	// }))
	// level.Set(slog.LevelDebug)
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// ensureDefaults ensures that the options have been set with viable values.
func (o *Options) ensureDefaults() {
	if o.ClientID == "" {
		o.ClientID = xid.New().String() // [MQTT-3.1.3-6]
	}

	if o.Keepalive == 0 {
		o.Keepalive = defaultKeepalive
	}

	if o.ProtocolLevel == 0 {
		o.ProtocolLevel = byte(packets.ProtocolV311)
	}

	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}

	if o.WriteQueueSize == 0 {
		o.WriteQueueSize = defaultWriteQueueSize
	}

	if o.ReadBufferSize == 0 {
		o.ReadBufferSize = defaultReadBufferSize
	}

	if o.Transport.Address == "" && (o.Transport.Type == "" || o.Transport.Type == transport.TypeTCP) {
		o.Transport.Address = defaultAddress
	}

	if o.Logger == nil {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		o.Logger = log
	}
}

// connectPacket assembles the CONNECT packet described by the options.
func (o *Options) connectPacket() (*packets.ConnectPacket, error) {
	b := packets.NewConnectBuilder().
		ClientID(o.ClientID).
		ProtocolLevel(packets.ProtocolLevel(o.ProtocolLevel)).
		CleanSession(o.CleanSession)

	if o.Keepalive > 0 {
		b = b.Keepalive(seconds(o.Keepalive))
	} else {
		b = b.Keepalive(0)
	}

	if o.Username != "" {
		b = b.Username(o.Username)
		if o.Password != "" {
			b = b.Password(o.Password)
		}
	}

	if o.Will != nil {
		b = b.WillTopic(o.Will.Topic).
			WillMessage(o.Will.Payload).
			WillQos(o.Will.Qos).
			WillRetain(o.Will.Retain)
	}

	return b.Build()
}
