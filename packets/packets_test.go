// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jinzhu/copier"
	"github.com/stretchr/testify/require"
)

const pkInfo = "packet type %v, %s"

var packetList = []Type{
	Connect,
	Connack,
	Publish,
	Puback,
	Subscribe,
	Suback,
	Unsubscribe,
	Unsuback,
	Pingreq,
	Pingresp,
	Disconnect,
	Unknown,
}

func encodeTestOK(wanted TPacketCase) bool {
	return wanted.Group == "" || wanted.Group == "encode"
}

func decodeTestOK(wanted TPacketCase) bool {
	return wanted.Group == "" || wanted.Group == "decode"
}

// clonePacket returns a copy of the packet with the same concrete type.
func clonePacket(t *testing.T, pk Packet) Packet {
	cp := reflect.New(reflect.TypeOf(pk).Elem()).Interface()
	require.NoError(t, copier.Copy(cp, pk))
	return cp.(Packet)
}

func TestPacketEncode(t *testing.T) {
	for _, pkt := range packetList {
		require.Contains(t, TPacketData, pkt)
		for _, wanted := range TPacketData[pkt] {
			t.Run(fmt.Sprintf("%s %s", pkt, wanted.Desc), func(t *testing.T) {
				if !encodeTestOK(wanted) {
					return
				}

				pk := clonePacket(t, wanted.Packet)
				require.Equal(t, pkt, pk.Header().Type, pkInfo, pkt, wanted.Desc)

				buf := new(bytes.Buffer)
				err := pk.Encode(buf)
				if wanted.Expect != nil {
					require.ErrorIs(t, err, wanted.Expect, pkInfo, pkt, wanted.Desc)
					return
				}

				require.NoError(t, err, pkInfo, pkt, wanted.Desc)
				require.EqualValues(t, wanted.RawBytes, buf.Bytes(), pkInfo, pkt, wanted.Desc)
				require.Equal(t, wanted.Packet, pk, "encode mutated the packet: "+pkInfo, pkt, wanted.Desc)
			})
		}
	}
}

func TestPacketDecode(t *testing.T) {
	for _, pkt := range packetList {
		require.Contains(t, TPacketData, pkt)
		for _, wanted := range TPacketData[pkt] {
			t.Run(fmt.Sprintf("%s %s", pkt, wanted.Desc), func(t *testing.T) {
				if !decodeTestOK(wanted) {
					return
				}

				pk, n, err := Decode(wanted.RawBytes)
				if wanted.Expect != nil {
					require.ErrorIs(t, err, wanted.Expect, pkInfo, pkt, wanted.Desc)
					require.ErrorIs(t, err, ErrDecode, pkInfo, pkt, wanted.Desc)
					return
				}

				require.NoError(t, err, pkInfo, pkt, wanted.Desc)
				require.Equal(t, len(wanted.RawBytes), n, pkInfo, pkt, wanted.Desc)
				require.Equal(t, wanted.Packet, pk, pkInfo, pkt, wanted.Desc)
			})
		}
	}
}

func TestDecodeStream(t *testing.T) {
	var stream []byte
	var expected []Packet
	for _, c := range []TPacketCase{
		TPacketData[Connack].Get(TConnackAcceptedSessionExists),
		TPacketData[Publish].Get(TPublishQos1),
		TPacketData[Suback].Get(TSubackMany),
		TPacketData[Pingresp].Get(TPingresp),
	} {
		stream = append(stream, c.RawBytes...)
		expected = append(expected, c.Packet)
	}

	for _, want := range expected {
		pk, n, err := Decode(stream)
		require.NoError(t, err)
		require.Equal(t, want, pk)
		stream = stream[n:]
	}

	require.Empty(t, stream)
}

func TestDecodeTruncated(t *testing.T) {
	raw := TPacketData[Publish].Get(TPublishBasic).RawBytes
	_, _, err := Decode(raw[:len(raw)-1])
	require.ErrorIs(t, err, ErrMalformedPacketTruncated)

	_, _, err = Decode(raw[:1])
	require.ErrorIs(t, err, ErrMalformedOffsetByteOutOfRange)
}

func TestEncode(t *testing.T) {
	wanted := TPacketData[Subscribe].Get(TSubscribe)
	b, err := Encode(wanted.Packet)
	require.NoError(t, err)
	require.Equal(t, wanted.RawBytes, b)

	_, err = Encode(&RawPacket{FixedHeader: FixedHeader{Type: Unknown}})
	require.ErrorIs(t, err, ErrUnknownPacketType)
}

func TestEncodeFieldTooLong(t *testing.T) {
	long := strings.Repeat("a", maxStringLength+1)
	tt := []struct {
		desc string
		pk   Packet
	}{
		{desc: "connect will message", pk: &ConnectPacket{
			ConnectFlags: ConnectFlags(0).WithWill(),
			WillTopic:    "a/b",
			WillMessage:  []byte(long),
		}},
		{desc: "connect password", pk: &ConnectPacket{
			ConnectFlags: ConnectFlags(0).WithPassword(),
			Password:     long,
		}},
		{desc: "publish topic", pk: &PublishPacket{TopicName: long}},
		{desc: "subscribe filter", pk: &SubscribePacket{PacketID: 1, Filters: []TopicFilter{{Filter: long}}}},
		{desc: "unsubscribe filter", pk: &UnsubscribePacket{PacketID: 1, Filters: []string{"a/b", long}}},
	}

	for _, wanted := range tt {
		t.Run(wanted.desc, func(t *testing.T) {
			b, err := Encode(wanted.pk)
			require.ErrorIs(t, err, ErrStringTooLong)
			require.ErrorIs(t, err, ErrEncode)
			require.Nil(t, b)
		})
	}
}

func TestRawPacketID(t *testing.T) {
	pk := TPacketData[Puback].Get(TPuback).Packet.(*RawPacket)
	id, err := pk.PacketID()
	require.NoError(t, err)
	require.Equal(t, uint16(7), id)

	_, err = (&RawPacket{FixedHeader: FixedHeader{Type: Pubrec}}).PacketID()
	require.ErrorIs(t, err, ErrMalformedPacketID)
}

func TestTPacketCasesGet(t *testing.T) {
	require.Equal(t, TPacketData[Connect][1], TPacketData[Connect].Get(TConnectUserPassLWT))
	require.Equal(t, TPacketCase{}, TPacketData[Connect].Get(TDisconnect))
}

func BenchmarkDecode(b *testing.B) {
	raw := TPacketData[Publish].Get(TPublishQos1).RawBytes
	for n := 0; n < b.N; n++ {
		_, _, _ = Decode(raw)
	}
}
