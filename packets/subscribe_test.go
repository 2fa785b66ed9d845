// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeBuilder(t *testing.T) {
	pk, err := NewSubscribeBuilder().Filter("a/b", 0).Build()
	require.NoError(t, err)
	require.Equal(t, uint16(1), pk.PacketID)

	b, err := Encode(pk)
	require.NoError(t, err)
	require.Equal(t, []byte{0x82, 0x08, 0x00, 0x01, 0x00, 0x03, 'a', '/', 'b', 0x00}, b)
}

func TestSubscribeBuilderMany(t *testing.T) {
	pk, err := NewSubscribeBuilder().PacketID(5).Filter("a/b", 1).Filter("d/#", 2).Build()
	require.NoError(t, err)

	b, err := Encode(pk)
	require.NoError(t, err)
	require.Equal(t, TPacketData[Subscribe].Get(TSubscribeMany).RawBytes, b)
}

func TestSubscribeBuilderErrors(t *testing.T) {
	tt := []struct {
		desc    string
		builder SubscribeBuilder
		expect  error
	}{
		{desc: "no filters", builder: NewSubscribeBuilder(), expect: ErrNoFilters},
		{desc: "zero packet id", builder: NewSubscribeBuilder().PacketID(0).Filter("a", 0), expect: ErrMissingPacketID},
		{desc: "empty filter", builder: NewSubscribeBuilder().Filter("", 0), expect: ErrInvalidFilter},
		{desc: "qos 3", builder: NewSubscribeBuilder().Filter("a/b", 3), expect: ErrInvalidQos},
		{desc: "misplaced multi level", builder: NewSubscribeBuilder().Filter("a/#/b", 0), expect: ErrInvalidFilter},
		{desc: "partial single level", builder: NewSubscribeBuilder().Filter("a/b+", 0), expect: ErrInvalidFilter},
	}

	for _, wanted := range tt {
		t.Run(wanted.desc, func(t *testing.T) {
			pk, err := wanted.builder.Build()
			require.Nil(t, pk)
			require.ErrorIs(t, err, wanted.expect)
		})
	}
}

func TestSubscribeBuilderImmutable(t *testing.T) {
	base := NewSubscribeBuilder().Filter("a", 0)
	one := base.Filter("b", 1)
	two := base.Filter("c", 2)

	pk, err := one.Build()
	require.NoError(t, err)
	require.Equal(t, []TopicFilter{{Filter: "a"}, {Filter: "b", Qos: 1}}, pk.Filters)

	pk, err = two.Build()
	require.NoError(t, err)
	require.Equal(t, []TopicFilter{{Filter: "a"}, {Filter: "c", Qos: 2}}, pk.Filters)
}

func TestValidFilter(t *testing.T) {
	for _, f := range []string{"#", "+", "a/b", "a/+/c", "a/#", "+/+", "/", "sport/tennis/#"} {
		require.True(t, validFilter(f), f)
	}

	for _, f := range []string{"", "a#", "a/#/c", "a+", "+a/b", "a/b\x00"} {
		require.False(t, validFilter(f), f)
	}
}

func TestUnsubscribeBuilder(t *testing.T) {
	pk, err := NewUnsubscribeBuilder().PacketID(2).Filter("a/b").Build()
	require.NoError(t, err)

	b, err := Encode(pk)
	require.NoError(t, err)
	require.Equal(t, TPacketData[Unsubscribe].Get(TUnsubscribe).RawBytes, b)
}

func TestUnsubscribeBuilderErrors(t *testing.T) {
	_, err := NewUnsubscribeBuilder().Build()
	require.ErrorIs(t, err, ErrNoFilters)

	_, err = NewUnsubscribeBuilder().PacketID(0).Filter("a").Build()
	require.ErrorIs(t, err, ErrMissingPacketID)

	_, err = NewUnsubscribeBuilder().Filter("a/#/b").Build()
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSubackGranted(t *testing.T) {
	pk := NewSuback(5, 1, 2, ErrSubscribeFailed.Code)
	require.Equal(t, uint32(5), pk.Remaining)

	qos, err := pk.Granted(0)
	require.NoError(t, err)
	require.Equal(t, byte(1), qos)

	qos, err = pk.Granted(1)
	require.NoError(t, err)
	require.Equal(t, byte(2), qos)

	_, err = pk.Granted(2)
	require.ErrorIs(t, err, ErrSubscribeFailed)

	_, err = pk.Granted(3)
	require.ErrorIs(t, err, ErrSubscribeFailed)

	b, err := Encode(pk)
	require.NoError(t, err)
	require.Equal(t, TPacketData[Suback].Get(TSubackMany).RawBytes, b)
}

func TestNewUnsuback(t *testing.T) {
	b, err := Encode(NewUnsuback(2))
	require.NoError(t, err)
	require.Equal(t, TPacketData[Unsuback].Get(TUnsuback).RawBytes, b)
}
