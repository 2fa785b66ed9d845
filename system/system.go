// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package system contains the counters a client keeps about its connection.
package system

import (
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported prometheus metric.
const Namespace = "mqtt_client"

// Info contains atomic counters and values for client statistics.
type Info struct {
	Version          string `json:"version"`           // the version of the client
	Started          int64  `json:"started"`           // the time the current connection was established in unix seconds
	LastPing         int64  `json:"last_ping"`         // the time the last PINGRESP was received in unix seconds
	Connects         int64  `json:"connects"`          // total number of accepted connections
	BytesReceived    int64  `json:"bytes_received"`    // total number of bytes received
	BytesSent        int64  `json:"bytes_sent"`        // total number of bytes sent
	PacketsReceived  int64  `json:"packets_received"`  // total number of packets of any type received
	PacketsSent      int64  `json:"packets_sent"`      // total number of packets of any type sent
	MessagesReceived int64  `json:"messages_received"` // total number of publish messages received
	MessagesSent     int64  `json:"messages_sent"`     // total number of publish messages sent
	PingsSent        int64  `json:"pings_sent"`        // total number of PINGREQ packets sent
	Subscriptions    int64  `json:"subscriptions"`     // number of filters currently subscribed
}

// Clone makes a copy of Info using atomic operation
func (i *Info) Clone() *Info {
	return &Info{
		Version:          i.Version,
		Started:          atomic.LoadInt64(&i.Started),
		LastPing:         atomic.LoadInt64(&i.LastPing),
		Connects:         atomic.LoadInt64(&i.Connects),
		BytesReceived:    atomic.LoadInt64(&i.BytesReceived),
		BytesSent:        atomic.LoadInt64(&i.BytesSent),
		PacketsReceived:  atomic.LoadInt64(&i.PacketsReceived),
		PacketsSent:      atomic.LoadInt64(&i.PacketsSent),
		MessagesReceived: atomic.LoadInt64(&i.MessagesReceived),
		MessagesSent:     atomic.LoadInt64(&i.MessagesSent),
		PingsSent:        atomic.LoadInt64(&i.PingsSent),
		Subscriptions:    atomic.LoadInt64(&i.Subscriptions),
	}
}

// RegisterPrometheusMetrics exposes the counters on the registry, or on the default
// registerer if nil.
func (i *Info) RegisterPrometheusMetrics(registry prometheus.Registerer) error {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	type metrics struct {
		metricType string
		name       string
		help       string
		value      *int64
	}

	metricsList := []metrics{
		{"c", "connects", "A counter of accepted connections", &i.Connects},
		{"c", "bytes_received", "A counter of total number of bytes received", &i.BytesReceived},
		{"c", "bytes_sent", "A counter of total number of bytes sent", &i.BytesSent},
		{"c", "packets_received", "A counter of the total number of packets received", &i.PacketsReceived},
		{"c", "packets_sent", "A counter of the total number of packets sent", &i.PacketsSent},
		{"c", "messages_received", "A counter of total number of publish messages received", &i.MessagesReceived},
		{"c", "messages_sent", "A counter of total number of publish messages sent", &i.MessagesSent},
		{"c", "pings_sent", "A counter of total number of pings sent", &i.PingsSent},
		{"g", "subscriptions", "A gauge of the number of filters currently subscribed", &i.Subscriptions},
		{"g", "last_ping", "A gauge of the unix time the last ping response was received", &i.LastPing},
	}

	for _, m := range metricsList {
		m := m
		fn := func() float64 {
			return float64(atomic.LoadInt64(m.value))
		}

		var c prometheus.Collector
		switch m.metricType {
		case "c":
			c = prometheus.NewCounterFunc(prometheus.CounterOpts{Namespace: Namespace, Name: m.name, Help: m.help}, fn)
		case "g":
			c = prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: Namespace, Name: m.name, Help: m.help}, fn)
		}

		if err := registry.Register(c); err != nil {
			return err
		}
	}

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build Information",
		},
		[]string{"goversion", "version"},
	)
	if err := registry.Register(buildInfo); err != nil {
		return err
	}
	buildInfo.With(prometheus.Labels{"goversion": runtime.Version(), "version": i.Version}).Set(1)

	return nil
}
