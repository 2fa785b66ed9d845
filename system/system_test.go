// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package system

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	o := &Info{
		Version:          "version",
		Started:          1,
		LastPing:         2,
		Connects:         3,
		BytesReceived:    4,
		BytesSent:        5,
		PacketsReceived:  6,
		PacketsSent:      7,
		MessagesReceived: 8,
		MessagesSent:     9,
		PingsSent:        10,
		Subscriptions:    11,
	}

	n := o.Clone()

	require.Equal(t, o, n)
}

func TestRegisterPrometheusMetrics(t *testing.T) {
	i := &Info{Version: "test"}
	reg := prometheus.NewRegistry()
	require.NoError(t, i.RegisterPrometheusMetrics(reg))

	atomic.AddInt64(&i.PacketsSent, 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	require.Equal(t, float64(3), values["mqtt_client_packets_sent"])
	require.Equal(t, float64(1), values["mqtt_client_build_info"])
	require.Contains(t, values, "mqtt_client_subscriptions")
}

func TestRegisterPrometheusMetricsTwice(t *testing.T) {
	i := new(Info)
	reg := prometheus.NewRegistry()
	require.NoError(t, i.RegisterPrometheusMetrics(reg))
	require.Error(t, i.RegisterPrometheusMetrics(reg))
}
