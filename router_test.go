// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mqutekitty/client/packets"
)

func TestMatchTopic(t *testing.T) {
	tt := []struct {
		filter string
		topic  string
		match  bool
	}{
		{filter: "a/b/c", topic: "a/b/c", match: true},
		{filter: "a/b/c", topic: "a/b", match: false},
		{filter: "a/b", topic: "a/b/c", match: false},
		{filter: "a/+/c", topic: "a/b/c", match: true},
		{filter: "a/+/c", topic: "a/b/d", match: false},
		{filter: "a/+", topic: "a/", match: true},
		{filter: "+/+", topic: "/b", match: true},
		{filter: "+", topic: "a/b", match: false},
		{filter: "a/#", topic: "a/b/c/d", match: true},
		{filter: "a/#", topic: "a", match: true},
		{filter: "a/b/#", topic: "a/c", match: false},
		{filter: "#", topic: "a/b/c", match: true},
		{filter: "#", topic: "$SYS/uptime", match: false},
		{filter: "+/uptime", topic: "$SYS/uptime", match: false},
		{filter: "$SYS/#", topic: "$SYS/uptime", match: true},
		{filter: "$SYS/+", topic: "$SYS/uptime", match: true},
	}

	for _, tx := range tt {
		t.Run(tx.filter+" "+tx.topic, func(t *testing.T) {
			require.Equal(t, tx.match, MatchTopic(tx.filter, tx.topic))
		})
	}
}

func TestRouterAddRemove(t *testing.T) {
	r := NewRouter()
	prev, ok := r.Add("a/b", nil)
	require.False(t, ok)
	require.Nil(t, prev)
	r.Add("a/+", func(cl *Client, pk *packets.PublishPacket) {})
	require.Equal(t, 2, r.Len())

	prev, ok = r.Add("a/b", func(cl *Client, pk *packets.PublishPacket) {})
	require.True(t, ok)
	require.Nil(t, prev)
	require.Equal(t, 2, r.Len())

	prev, ok = r.Add("a/+", nil)
	require.True(t, ok)
	require.NotNil(t, prev)

	r.Remove("a/b")
	require.Equal(t, 1, r.Len())

	r.Remove("x/y")
	require.Equal(t, 1, r.Len())
}

func TestRouterHandlers(t *testing.T) {
	var calls []string
	r := NewRouter()
	r.Add("a/+", func(cl *Client, pk *packets.PublishPacket) { calls = append(calls, "a/+") })
	r.Add("a/#", func(cl *Client, pk *packets.PublishPacket) { calls = append(calls, "a/#") })
	r.Add("a/b", func(cl *Client, pk *packets.PublishPacket) { calls = append(calls, "a/b") })
	r.Add("#", nil)
	r.Add("c/d", func(cl *Client, pk *packets.PublishPacket) { calls = append(calls, "c/d") })

	handlers := r.Handlers("a/b")
	require.Len(t, handlers, 3)
	for _, h := range handlers {
		h(nil, nil)
	}
	require.Equal(t, []string{"a/#", "a/+", "a/b"}, calls)

	require.Len(t, r.Handlers("x/y"), 0)
}
