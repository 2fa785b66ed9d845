// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

// TPacketCase contains data for cross-checking the encoding and decoding
// of packets and expected scenarios.
type TPacketCase struct {
	RawBytes []byte // the bytes that make the packet
	Group    string // "encode" or "decode" to run the case one way only, blank for both
	Desc     string // a description of the test
	Packet   Packet // the packet that is expected
	Expect   error  // expected fail result
	Case     byte   // the identifying byte of the case
}

// TPacketCases is a slice of TPacketCase.
type TPacketCases []TPacketCase

// Get returns a case matching a given T byte.
func (f TPacketCases) Get(b byte) TPacketCase {
	for _, v := range f {
		if v.Case == b {
			return v
		}
	}

	return TPacketCase{}
}

const (
	TConnectMqtt311 byte = iota
	TConnectUserPassLWT
	TConnectMalProtocolName
	TConnectMalReservedBit
	TConnectMalClientID
	TConnackAcceptedNoSession
	TConnackAcceptedSessionExists
	TConnackBadUsernamePassword
	TConnackMalReturnCode
	TPublishBasic
	TPublishNoPayload
	TPublishQos1
	TPublishRetain
	TPublishMalTopicName
	TPublishMalPacketID
	TPublishMalQos
	TSubscribe
	TSubscribeMany
	TSubscribeInvalidFlags
	TSubscribeMalQos
	TSubscribeNoFilters
	TSuback
	TSubackMany
	TSubackMalReturnCode
	TUnsubscribe
	TUnsubscribeNoFilters
	TUnsuback
	TPingreq
	TPingresp
	TDisconnect
	TDisconnectInvalidFlags
	TPuback
	TReservedType
)

// TPacketData contains individual encoding and decoding scenarios for each packet type.
var TPacketData = map[Type]TPacketCases{
	Connect: {
		{
			Case: TConnectMqtt311,
			Desc: "mqtt v3.1.1 clean session",
			RawBytes: []byte{
				0x10, 29, // Fixed header
				0, 4, // Protocol Name - MSB+LSB
				'M', 'Q', 'T', 'T', // Protocol Name
				4,     // Protocol Version
				2,     // Packet Flags
				0, 60, // Keepalive
				0, 17, // Client ID - MSB+LSB
				'm', 'q', 'u', 't', 'e', 'k', 'i', 't', 't', 'y', '_', 'c', 'l', 'i', 'e', 'n', 't',
			},
			Packet: &ConnectPacket{
				FixedHeader:      FixedHeader{Type: Connect, Remaining: 29},
				ProtocolName:     "MQTT",
				ProtocolLevel:    ProtocolV311,
				ConnectFlags:     FlagCleanSession,
				Keepalive:        60,
				ClientIdentifier: "mqutekitty_client",
			},
		},
		{
			Case: TConnectUserPassLWT,
			Desc: "username, password and will",
			RawBytes: []byte{
				0x10, 44, // Fixed header
				0, 4, 'M', 'Q', 'T', 'T', // Protocol Name
				4,     // Protocol Version
				0xEE,  // Packet Flags
				0, 30, // Keepalive
				0, 3, 'z', 'e', 'n', // Client ID
				0, 3, 'l', 'w', 't', // Will Topic
				0, 8, 'n', 'o', 't', 'a', 'g', 'a', 'i', 'n', // Will Message
				0, 5, 'm', 'o', 'c', 'h', 'i', // Username
				0, 5, 'm', 'e', 'l', 'o', 'n', // Password
			},
			Packet: &ConnectPacket{
				FixedHeader:      FixedHeader{Type: Connect, Remaining: 44},
				ProtocolName:     "MQTT",
				ProtocolLevel:    ProtocolV311,
				ConnectFlags:     0xEE,
				Keepalive:        30,
				ClientIdentifier: "zen",
				WillTopic:        "lwt",
				WillMessage:      []byte("notagain"),
				Username:         "mochi",
				Password:         "melon",
			},
		},
		{
			Case:     TConnectMalProtocolName,
			Desc:     "malformed protocol name",
			Group:    "decode",
			RawBytes: []byte{0x10, 2, 0, 7},
			Expect:   ErrMalformedProtocolName,
		},
		{
			Case:  TConnectMalReservedBit,
			Desc:  "reserved connect flag set",
			Group: "decode",
			RawBytes: []byte{
				0x10, 10,
				0, 4, 'M', 'Q', 'T', 'T',
				4, 3, 0, 60,
			},
			Expect: ErrMalformedFlags,
		},
		{
			Case:  TConnectMalClientID,
			Desc:  "client id shorter than its length prefix",
			Group: "decode",
			RawBytes: []byte{
				0x10, 12,
				0, 4, 'M', 'Q', 'T', 'T',
				4, 2, 0, 60,
				0, 5,
			},
			Expect: ErrMalformedClientID,
		},
	},
	Connack: {
		{
			Case:     TConnackAcceptedNoSession,
			Desc:     "accepted, no session",
			RawBytes: []byte{0x20, 2, 0, 0},
			Packet: &ConnackPacket{
				FixedHeader: FixedHeader{Type: Connack, Remaining: 2},
			},
		},
		{
			Case:     TConnackAcceptedSessionExists,
			Desc:     "accepted, session exists",
			RawBytes: []byte{0x20, 2, 1, 0},
			Packet: &ConnackPacket{
				FixedHeader: FixedHeader{Type: Connack, Remaining: 2},
				AckFlags:    1,
			},
		},
		{
			Case:     TConnackBadUsernamePassword,
			Desc:     "bad username or password",
			RawBytes: []byte{0x20, 2, 0, ErrConnectBadUsernamePassword.Code},
			Packet: &ConnackPacket{
				FixedHeader: FixedHeader{Type: Connack, Remaining: 2},
				ReturnCode:  ErrConnectBadUsernamePassword.Code,
			},
		},
		{
			Case:     TConnackMalReturnCode,
			Desc:     "missing return code",
			Group:    "decode",
			RawBytes: []byte{0x20, 1, 0},
			Expect:   ErrMalformedReturnCode,
		},
	},
	Publish: {
		{
			Case: TPublishBasic,
			Desc: "qos 0",
			RawBytes: []byte{
				0x30, 9, // Fixed header
				0, 3, 'a', '/', 'b', // Topic Name
				't', 'e', 's', 't', // Payload
			},
			Packet: &PublishPacket{
				FixedHeader: FixedHeader{Type: Publish, Remaining: 9},
				TopicName:   "a/b",
				Payload:     []byte("test"),
			},
		},
		{
			Case: TPublishNoPayload,
			Desc: "no payload",
			RawBytes: []byte{
				0x30, 5,
				0, 3, 'a', '/', 'b',
			},
			Packet: &PublishPacket{
				FixedHeader: FixedHeader{Type: Publish, Remaining: 5},
				TopicName:   "a/b",
				Payload:     []byte{},
			},
		},
		{
			Case: TPublishQos1,
			Desc: "qos 1",
			RawBytes: []byte{
				0x32, 12, // Fixed header
				0, 3, 'a', '/', 'b', // Topic Name
				0, 7, // Packet ID - LSB+MSB
				'h', 'e', 'l', 'l', 'o', // Payload
			},
			Packet: &PublishPacket{
				FixedHeader: FixedHeader{Type: Publish, Flags: 2, Remaining: 12},
				TopicName:   "a/b",
				PacketID:    7,
				Payload:     []byte("hello"),
			},
		},
		{
			Case: TPublishRetain,
			Desc: "retain",
			RawBytes: []byte{
				0x31, 7,
				0, 3, 'a', '/', 'b',
				'h', 'i',
			},
			Packet: &PublishPacket{
				FixedHeader: FixedHeader{Type: Publish, Flags: 1, Remaining: 7},
				TopicName:   "a/b",
				Payload:     []byte("hi"),
			},
		},
		{
			Case:     TPublishMalTopicName,
			Desc:     "topic shorter than its length prefix",
			Group:    "decode",
			RawBytes: []byte{0x30, 3, 0, 5, 'a'},
			Expect:   ErrMalformedTopic,
		},
		{
			Case:     TPublishMalPacketID,
			Desc:     "truncated packet id",
			Group:    "decode",
			RawBytes: []byte{0x32, 6, 0, 3, 'a', '/', 'b', 0},
			Expect:   ErrMalformedPacketID,
		},
		{
			Case:     TPublishMalQos,
			Desc:     "qos 3",
			Group:    "decode",
			RawBytes: []byte{0x36, 5, 0, 3, 'a', '/', 'b'},
			Expect:   ErrMalformedQos,
		},
	},
	Subscribe: {
		{
			Case: TSubscribe,
			Desc: "single filter",
			RawBytes: []byte{
				0x82, 8, // Fixed header
				0, 1, // Packet ID - LSB+MSB
				0, 3, 'a', '/', 'b', // Topic Filter
				0, // QoS
			},
			Packet: &SubscribePacket{
				FixedHeader: FixedHeader{Type: Subscribe, Flags: 2, Remaining: 8},
				PacketID:    1,
				Filters:     []TopicFilter{{Filter: "a/b", Qos: 0}},
			},
		},
		{
			Case: TSubscribeMany,
			Desc: "many filters",
			RawBytes: []byte{
				0x82, 14,
				0, 5,
				0, 3, 'a', '/', 'b', 1,
				0, 3, 'd', '/', '#', 2,
			},
			Packet: &SubscribePacket{
				FixedHeader: FixedHeader{Type: Subscribe, Flags: 2, Remaining: 14},
				PacketID:    5,
				Filters: []TopicFilter{
					{Filter: "a/b", Qos: 1},
					{Filter: "d/#", Qos: 2},
				},
			},
		},
		{
			Case:     TSubscribeInvalidFlags,
			Desc:     "reserved flags not set",
			Group:    "decode",
			RawBytes: []byte{0x80, 8, 0, 1, 0, 3, 'a', '/', 'b', 0},
			Expect:   ErrInvalidFlags,
		},
		{
			Case:     TSubscribeMalQos,
			Desc:     "qos 3",
			Group:    "decode",
			RawBytes: []byte{0x82, 8, 0, 1, 0, 3, 'a', '/', 'b', 3},
			Expect:   ErrMalformedQos,
		},
		{
			Case:     TSubscribeNoFilters,
			Desc:     "no filters",
			Group:    "decode",
			RawBytes: []byte{0x82, 2, 0, 1},
			Expect:   ErrMalformedTopic,
		},
	},
	Suback: {
		{
			Case:     TSuback,
			Desc:     "granted qos 0",
			RawBytes: []byte{0x90, 3, 0, 1, 0},
			Packet: &SubackPacket{
				FixedHeader: FixedHeader{Type: Suback, Remaining: 3},
				PacketID:    1,
				ReturnCodes: []byte{0},
			},
		},
		{
			Case:     TSubackMany,
			Desc:     "granted and failed",
			RawBytes: []byte{0x90, 5, 0, 5, 1, 2, 0x80},
			Packet: &SubackPacket{
				FixedHeader: FixedHeader{Type: Suback, Remaining: 5},
				PacketID:    5,
				ReturnCodes: []byte{1, 2, 0x80},
			},
		},
		{
			Case:     TSubackMalReturnCode,
			Desc:     "unknown return code",
			Group:    "decode",
			RawBytes: []byte{0x90, 3, 0, 1, 3},
			Expect:   ErrMalformedReturnCode,
		},
	},
	Unsubscribe: {
		{
			Case: TUnsubscribe,
			Desc: "single filter",
			RawBytes: []byte{
				0xA2, 7,
				0, 2,
				0, 3, 'a', '/', 'b',
			},
			Packet: &UnsubscribePacket{
				FixedHeader: FixedHeader{Type: Unsubscribe, Flags: 2, Remaining: 7},
				PacketID:    2,
				Filters:     []string{"a/b"},
			},
		},
		{
			Case:     TUnsubscribeNoFilters,
			Desc:     "no filters",
			Group:    "decode",
			RawBytes: []byte{0xA2, 2, 0, 2},
			Expect:   ErrMalformedTopic,
		},
	},
	Unsuback: {
		{
			Case:     TUnsuback,
			Desc:     "unsuback",
			RawBytes: []byte{0xB0, 2, 0, 2},
			Packet: &UnsubackPacket{
				FixedHeader: FixedHeader{Type: Unsuback, Remaining: 2},
				PacketID:    2,
			},
		},
	},
	Pingreq: {
		{
			Case:     TPingreq,
			Desc:     "pingreq",
			RawBytes: []byte{0xC0, 0},
			Packet:   &PingreqPacket{FixedHeader: FixedHeader{Type: Pingreq}},
		},
	},
	Pingresp: {
		{
			Case:     TPingresp,
			Desc:     "pingresp",
			RawBytes: []byte{0xD0, 0},
			Packet:   &PingrespPacket{FixedHeader: FixedHeader{Type: Pingresp}},
		},
	},
	Disconnect: {
		{
			Case:     TDisconnect,
			Desc:     "disconnect",
			RawBytes: []byte{0xE0, 0},
			Packet:   &DisconnectPacket{FixedHeader: FixedHeader{Type: Disconnect}},
		},
		{
			Case:     TDisconnectInvalidFlags,
			Desc:     "reserved flags set",
			Group:    "decode",
			RawBytes: []byte{0xE1, 0},
			Expect:   ErrInvalidFlags,
		},
	},
	Puback: {
		{
			Case:     TPuback,
			Desc:     "puback kept raw",
			RawBytes: []byte{0x40, 2, 0, 7},
			Packet: &RawPacket{
				FixedHeader: FixedHeader{Type: Puback, Remaining: 2},
				Body:        []byte{0, 7},
			},
		},
	},
	Unknown: {
		{
			Case:     TReservedType,
			Desc:     "reserved type 15",
			Group:    "decode",
			RawBytes: []byte{0xF0, 0},
			Packet: &RawPacket{
				FixedHeader: FixedHeader{Type: Unknown},
				Body:        []byte{},
			},
		},
	},
}
