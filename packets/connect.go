// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"time"
)

// ProtocolName is the protocol name carried by every CONNECT packet.
const ProtocolName = "MQTT"

// ProtocolLevel is the revision of the protocol requested by the client.
type ProtocolLevel byte

const (
	ProtocolV31  ProtocolLevel = 3
	ProtocolV311 ProtocolLevel = 4
	ProtocolV5   ProtocolLevel = 5
)

const (
	defaultKeepalive = 60 * time.Second
	maxKeepalive     = 65535 * time.Second
)

// ConnectFlags is the connect flags byte of the CONNECT variable header.
//
//	bit 7: user name, 6: password, 5: will retain, 4-3: will qos,
//	bit 2: will flag, 1: clean session, 0: reserved (must be 0) [MQTT-3.1.2-3]
type ConnectFlags byte

const (
	FlagUserName     ConnectFlags = 0x80
	FlagPassword     ConnectFlags = 0x40
	FlagWillRetain   ConnectFlags = 0x20
	FlagWillQos      ConnectFlags = 0x18
	FlagWill         ConnectFlags = 0x04
	FlagCleanSession ConnectFlags = 0x02
	FlagReserved     ConnectFlags = 0x01
)

// WithUserName returns a copy of the flags with the user name bit set.
func (f ConnectFlags) WithUserName() ConnectFlags { return f | FlagUserName }

// WithPassword returns a copy of the flags with the password bit set.
func (f ConnectFlags) WithPassword() ConnectFlags { return f | FlagPassword }

// WithWillRetain returns a copy of the flags with the will retain bit set.
func (f ConnectFlags) WithWillRetain() ConnectFlags { return f | FlagWillRetain }

// WithWill returns a copy of the flags with the will flag set.
func (f ConnectFlags) WithWill() ConnectFlags { return f | FlagWill }

// WithCleanSession returns a copy of the flags with the clean session bit set.
func (f ConnectFlags) WithCleanSession() ConnectFlags { return f | FlagCleanSession }

// WithWillQos returns a copy of the flags with the will qos bits replaced. Values
// above 2 are rejected.
func (f ConnectFlags) WithWillQos(qos byte) (ConnectFlags, error) {
	if !validateQos(qos) {
		return f, ErrInvalidQos
	}

	return f&^FlagWillQos | ConnectFlags(qos<<3), nil
}

func (f ConnectFlags) UserName() bool     { return f&FlagUserName > 0 }
func (f ConnectFlags) Password() bool     { return f&FlagPassword > 0 }
func (f ConnectFlags) WillRetain() bool   { return f&FlagWillRetain > 0 }
func (f ConnectFlags) WillQos() byte      { return byte(f&FlagWillQos) >> 3 }
func (f ConnectFlags) Will() bool         { return f&FlagWill > 0 }
func (f ConnectFlags) CleanSession() bool { return f&FlagCleanSession > 0 }
func (f ConnectFlags) Reserved() bool     { return f&FlagReserved > 0 }

// ConnectPacket contains the values of an MQTT CONNECT packet.
type ConnectPacket struct {
	FixedHeader
	ProtocolName     string
	ClientIdentifier string
	WillTopic        string
	WillMessage      []byte
	Username         string
	Password         string
	Keepalive        uint16
	ProtocolLevel    ProtocolLevel
	ConnectFlags     ConnectFlags
}

// remainingLength returns the number of bytes following the fixed header.
// Payload fields which are absent per the flags contribute nothing.
func (pk *ConnectPacket) remainingLength() uint32 {
	n := 2 + len(pk.ProtocolName) + 1 + 1 + 2 // protocol name, level, flags, keepalive
	n += 2 + len(pk.ClientIdentifier)
	if pk.ConnectFlags.Will() {
		n += 2 + len(pk.WillTopic)
		n += 2 + len(pk.WillMessage)
	}
	if pk.ConnectFlags.UserName() {
		n += 2 + len(pk.Username)
	}
	if pk.ConnectFlags.Password() {
		n += 2 + len(pk.Password)
	}

	return uint32(n)
}

// Encode encodes and writes the packet data values to the buffer. Payload fields are
// written in the order Client Identifier, Will Topic, Will Message, User Name, Password
// [MQTT-3.1.3-1].
func (pk *ConnectPacket) Encode(buf *bytes.Buffer) error {
	if !fieldsFit(pk.ProtocolName, pk.ClientIdentifier, pk.WillTopic, pk.Username, pk.Password) ||
		len(pk.WillMessage) > maxStringLength {
		return ErrStringTooLong
	}

	fh := pk.FixedHeader
	fh.Type = Connect
	fh.Flags = 0
	fh.Remaining = pk.remainingLength()
	if err := fh.Encode(buf); err != nil {
		return err
	}

	if err := encodeString(buf, pk.ProtocolName); err != nil {
		return err
	}
	buf.WriteByte(byte(pk.ProtocolLevel))
	buf.WriteByte(byte(pk.ConnectFlags))
	encodeUint16(buf, pk.Keepalive)
	if err := encodeString(buf, pk.ClientIdentifier); err != nil {
		return err
	}

	if pk.ConnectFlags.Will() {
		if err := encodeString(buf, pk.WillTopic); err != nil {
			return err
		}
		if err := encodeBytes(buf, pk.WillMessage); err != nil {
			return err
		}
	}

	if pk.ConnectFlags.UserName() {
		if err := encodeString(buf, pk.Username); err != nil {
			return err
		}
	}

	if pk.ConnectFlags.Password() {
		if err := encodeString(buf, pk.Password); err != nil {
			return err
		}
	}

	return nil
}

// Decode extracts the variable header and payload values from the bytes following the fixed header.
func (pk *ConnectPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.ProtocolName, offset, err = decodeString(buf, 0)
	if err != nil {
		return ErrMalformedProtocolName
	}

	var level byte
	level, offset, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedProtocolVersion
	}
	pk.ProtocolLevel = ProtocolLevel(level)

	var flags byte
	flags, offset, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedFlags
	}
	pk.ConnectFlags = ConnectFlags(flags)
	if pk.ConnectFlags.Reserved() || pk.ConnectFlags.WillQos() > ExactlyOnce {
		return ErrMalformedFlags
	}

	pk.Keepalive, offset, err = decodeUint16(buf, offset)
	if err != nil {
		return ErrMalformedKeepalive
	}

	pk.ClientIdentifier, offset, err = decodeString(buf, offset)
	if err != nil {
		return ErrMalformedClientID
	}

	if pk.ConnectFlags.Will() {
		pk.WillTopic, offset, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedWillTopic
		}

		pk.WillMessage, offset, err = decodeBytes(buf, offset)
		if err != nil {
			return ErrMalformedWillPayload
		}
	}

	if pk.ConnectFlags.UserName() {
		pk.Username, offset, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedUsername
		}
	}

	if pk.ConnectFlags.Password() {
		pk.Password, _, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedPassword
		}
	}

	return nil
}

// ConnectBuilder assembles a CONNECT packet. Every setter returns a modified copy, so a
// builder value can be shared and extended without affecting other copies.
type ConnectBuilder struct {
	clientID     *string
	username     *string
	password     *string
	willTopic    *string
	willMessage  []byte
	hasWill      bool
	keepalive    time.Duration
	level        ProtocolLevel
	willQos      byte
	cleanSession bool
	willRetain   bool
}

// NewConnectBuilder returns a builder for MQTT v3.1.1 with a 60 second keepalive and
// will qos 0.
func NewConnectBuilder() ConnectBuilder {
	return ConnectBuilder{
		keepalive: defaultKeepalive,
		level:     ProtocolV311,
		willQos:   AtMostOnce,
	}
}

func (b ConnectBuilder) ClientID(id string) ConnectBuilder {
	b.clientID = &id
	return b
}

func (b ConnectBuilder) Username(username string) ConnectBuilder {
	b.username = &username
	return b
}

// Password sets the password. It is only sent when a username is also set.
func (b ConnectBuilder) Password(password string) ConnectBuilder {
	b.password = &password
	return b
}

func (b ConnectBuilder) ProtocolLevel(level ProtocolLevel) ConnectBuilder {
	b.level = level
	return b
}

func (b ConnectBuilder) Keepalive(d time.Duration) ConnectBuilder {
	b.keepalive = d
	return b
}

func (b ConnectBuilder) CleanSession(clean bool) ConnectBuilder {
	b.cleanSession = clean
	return b
}

func (b ConnectBuilder) WillRetain(retain bool) ConnectBuilder {
	b.willRetain = retain
	return b
}

// WillTopic sets the will topic. The will is only sent when a will message is also set.
func (b ConnectBuilder) WillTopic(topic string) ConnectBuilder {
	b.willTopic = &topic
	return b
}

func (b ConnectBuilder) WillMessage(msg []byte) ConnectBuilder {
	b.willMessage = append(make([]byte, 0, len(msg)), msg...)
	b.hasWill = true
	return b
}

// WillQos sets the will qos. Values above 2 cause Build to fail.
func (b ConnectBuilder) WillQos(qos byte) ConnectBuilder {
	b.willQos = qos
	return b
}

// flags derives the connect flags byte from the configured values.
func (b ConnectBuilder) flags() (ConnectFlags, error) {
	var f ConnectFlags
	if b.username != nil {
		f = f.WithUserName()
	}

	if b.password != nil && b.username != nil { // [MQTT-3.1.2-22]
		f = f.WithPassword()
	}

	if b.willRetain {
		f = f.WithWillRetain()
	}

	if b.willTopic != nil && b.hasWill {
		f = f.WithWill()
	}

	if b.cleanSession {
		f = f.WithCleanSession()
	}

	return f.WithWillQos(b.willQos)
}

// Build validates the configured values and returns the CONNECT packet.
func (b ConnectBuilder) Build() (*ConnectPacket, error) {
	if b.clientID == nil {
		return nil, ErrMissingClientID
	}

	if b.level < ProtocolV31 || b.level > ProtocolV5 {
		return nil, ErrInvalidProtocolLevel
	}

	if b.keepalive < 0 || b.keepalive > maxKeepalive {
		return nil, ErrInvalidKeepalive
	}

	flags, err := b.flags()
	if err != nil {
		return nil, err
	}

	pk := &ConnectPacket{
		FixedHeader:      NewFixedHeader(Connect),
		ProtocolName:     ProtocolName,
		ProtocolLevel:    b.level,
		ConnectFlags:     flags,
		Keepalive:        uint16(b.keepalive / time.Second),
		ClientIdentifier: *b.clientID,
	}

	if flags.Will() {
		pk.WillTopic = *b.willTopic
		pk.WillMessage = b.willMessage
	}

	if flags.UserName() {
		pk.Username = *b.username
	}

	if flags.Password() {
		pk.Password = *b.password
	}

	if !fieldsFit(pk.ClientIdentifier, pk.WillTopic, pk.Username, pk.Password) ||
		len(pk.WillMessage) > maxStringLength {
		return nil, ErrFieldTooLong
	}

	pk.FixedHeader.Remaining = pk.remainingLength()
	return pk, nil
}
