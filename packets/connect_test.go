// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectFlags(t *testing.T) {
	f := ConnectFlags(0).WithWillRetain()
	require.Equal(t, ConnectFlags(0b0010_0000), f)

	f, err := ConnectFlags(0).WithWillQos(2)
	require.NoError(t, err)
	require.Equal(t, ConnectFlags(0b0001_0000), f)
	require.Equal(t, byte(2), f.WillQos())

	f, err = f.WithWillQos(1)
	require.NoError(t, err)
	require.Equal(t, ConnectFlags(0b0000_1000), f)

	f = ConnectFlags(0).WithUserName().WithPassword().WithWillRetain().WithWill().WithCleanSession()
	f, err = f.WithWillQos(2)
	require.NoError(t, err)
	require.Equal(t, ConnectFlags(0b1111_0110), f)
	require.True(t, f.UserName())
	require.True(t, f.Password())
	require.True(t, f.WillRetain())
	require.True(t, f.Will())
	require.True(t, f.CleanSession())
	require.False(t, f.Reserved())
}

func TestConnectFlagsInvalidQos(t *testing.T) {
	f := ConnectFlags(0).WithCleanSession()
	g, err := f.WithWillQos(3)
	require.ErrorIs(t, err, ErrInvalidQos)
	require.Equal(t, f, g)
}

func TestConnectBuilderMinimal(t *testing.T) {
	pk, err := NewConnectBuilder().ClientID("mqutekitty_client").CleanSession(true).Build()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, pk.Encode(buf))
	require.Equal(t, TPacketData[Connect].Get(TConnectMqtt311).RawBytes, buf.Bytes())
	require.Len(t, buf.Bytes(), 31)
	require.Equal(t, uint32(29), pk.Remaining)
}

func TestConnectBuilderDefaults(t *testing.T) {
	pk, err := NewConnectBuilder().ClientID("zen").Build()
	require.NoError(t, err)
	require.Equal(t, ProtocolName, pk.ProtocolName)
	require.Equal(t, ProtocolV311, pk.ProtocolLevel)
	require.Equal(t, uint16(60), pk.Keepalive)
	require.Equal(t, ConnectFlags(0), pk.ConnectFlags)
	require.Equal(t, Connect, pk.Type)
}

func TestConnectBuilderFull(t *testing.T) {
	pk, err := NewConnectBuilder().
		ClientID("zen").
		Keepalive(30 * time.Second).
		Username("mochi").
		Password("melon").
		WillTopic("lwt").
		WillMessage([]byte("notagain")).
		WillQos(1).
		WillRetain(true).
		CleanSession(true).
		Build()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, pk.Encode(buf))
	require.Equal(t, TPacketData[Connect].Get(TConnectUserPassLWT).RawBytes, buf.Bytes())
}

func TestConnectBuilderPasswordNeedsUsername(t *testing.T) {
	pk, err := NewConnectBuilder().ClientID("zen").Password("melon").Build()
	require.NoError(t, err)
	require.False(t, pk.ConnectFlags.Password())
	require.Equal(t, "", pk.Password)

	b, err := Encode(pk)
	require.NoError(t, err)
	require.NotContains(t, string(b), "melon")
}

func TestConnectBuilderWillNeedsTopicAndMessage(t *testing.T) {
	pk, err := NewConnectBuilder().ClientID("zen").WillTopic("lwt").Build()
	require.NoError(t, err)
	require.False(t, pk.ConnectFlags.Will())

	pk, err = NewConnectBuilder().ClientID("zen").WillMessage([]byte("x")).Build()
	require.NoError(t, err)
	require.False(t, pk.ConnectFlags.Will())

	pk, err = NewConnectBuilder().ClientID("zen").WillTopic("lwt").WillMessage(nil).Build()
	require.NoError(t, err)
	require.True(t, pk.ConnectFlags.Will())
	require.Equal(t, uint32(10+5+5+2), pk.Remaining)
}

func TestConnectBuilderErrors(t *testing.T) {
	long := strings.Repeat("a", maxStringLength+1)
	tt := []struct {
		desc    string
		builder ConnectBuilder
		expect  error
	}{
		{desc: "missing client id", builder: NewConnectBuilder(), expect: ErrMissingClientID},
		{desc: "will qos 3", builder: NewConnectBuilder().ClientID("zen").WillQos(3), expect: ErrInvalidQos},
		{desc: "keepalive too long", builder: NewConnectBuilder().ClientID("zen").Keepalive(65536 * time.Second), expect: ErrInvalidKeepalive},
		{desc: "negative keepalive", builder: NewConnectBuilder().ClientID("zen").Keepalive(-time.Second), expect: ErrInvalidKeepalive},
		{desc: "protocol level 2", builder: NewConnectBuilder().ClientID("zen").ProtocolLevel(2), expect: ErrInvalidProtocolLevel},
		{desc: "protocol level 6", builder: NewConnectBuilder().ClientID("zen").ProtocolLevel(6), expect: ErrInvalidProtocolLevel},
		{desc: "client id too long", builder: NewConnectBuilder().ClientID(long), expect: ErrFieldTooLong},
		{desc: "username too long", builder: NewConnectBuilder().ClientID("zen").Username(long), expect: ErrFieldTooLong},
	}

	for _, wanted := range tt {
		t.Run(wanted.desc, func(t *testing.T) {
			pk, err := wanted.builder.Build()
			require.Nil(t, pk)
			require.ErrorIs(t, err, wanted.expect)
			require.ErrorIs(t, err, ErrBuild)
		})
	}
}

func TestConnectBuilderImmutable(t *testing.T) {
	base := NewConnectBuilder().ClientID("base")
	withUser := base.Username("mochi")

	pk, err := base.Build()
	require.NoError(t, err)
	require.False(t, pk.ConnectFlags.UserName())

	pk, err = withUser.Build()
	require.NoError(t, err)
	require.True(t, pk.ConnectFlags.UserName())
	require.Equal(t, "base", pk.ClientIdentifier)
}

func TestConnectBuilderWillMessageCopied(t *testing.T) {
	msg := []byte("bye")
	b := NewConnectBuilder().ClientID("zen").WillTopic("lwt").WillMessage(msg)
	msg[0] = 'x'

	pk, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, []byte("bye"), pk.WillMessage)
}

func TestConnectEncodeDoesNotMutate(t *testing.T) {
	pk, err := NewConnectBuilder().ClientID("zen").Build()
	require.NoError(t, err)
	pk.Remaining = 0

	b1, err := Encode(pk)
	require.NoError(t, err)
	b2, err := Encode(pk)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, uint32(0), pk.Remaining)
}

func TestConnectDecodeRoundTrip(t *testing.T) {
	want, err := NewConnectBuilder().
		ClientID("zen").
		ProtocolLevel(ProtocolV31).
		Username("mochi").
		Password("melon").
		Build()
	require.NoError(t, err)

	b, err := Encode(want)
	require.NoError(t, err)

	pk, n, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	require.Equal(t, want, pk)
}

func TestConnectEncodeTooLong(t *testing.T) {
	pk := &ConnectPacket{ClientIdentifier: strings.Repeat("a", maxStringLength+1)}
	buf := new(bytes.Buffer)
	require.ErrorIs(t, pk.Encode(buf), ErrStringTooLong)
	require.Equal(t, 0, buf.Len())
}
