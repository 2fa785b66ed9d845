// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/config"
	"github.com/mqutekitty/client/hooks/debug"
	"github.com/mqutekitty/client/packets"
)

func main() {
	configFile := flag.String("config", "", "path to a yaml or json config file")
	address := flag.String("address", "", "broker address, socket path or ws:// url")
	transportType := flag.String("transport", "", "transport type (tcp, unix or ws)")
	clientID := flag.String("id", "", "client identifier (random if empty)")
	sub := flag.String("sub", "", "topic filter to subscribe to")
	pub := flag.String("pub", "", "topic to publish the message to")
	message := flag.String("message", "hello", "message payload to publish")
	qos := flag.Uint("qos", 0, "quality of service for publish and subscribe")
	showDebug := flag.Bool("debug", false, "log packets as they are sent and received")
	flag.Parse()

	level := new(slog.LevelVar)
	if *showDebug {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	q, err := parseQos(*qos)
	if err != nil {
		logger.Error("invalid qos", "error", err, "qos", *qos)
		os.Exit(1)
	}

	opts := new(mqtt.Options)
	if *configFile != "" {
		b, err := os.ReadFile(*configFile)
		if err != nil {
			logger.Error("failed to read config file", "error", err, "path", *configFile)
			os.Exit(1)
		}

		o, err := config.FromBytes(b)
		if err != nil {
			logger.Error("failed to parse config file", "error", err, "path", *configFile)
			os.Exit(1)
		}

		if o != nil {
			opts = o
		}
	}

	if *address != "" {
		opts.Transport.Address = *address
	}
	if *transportType != "" {
		opts.Transport.Type = *transportType
	}
	if *clientID != "" {
		opts.ClientID = *clientID
	}
	opts.Logger = logger

	client := mqtt.New(opts)
	if *showDebug {
		if err := client.AddHook(new(debug.Hook), &debug.Options{}); err != nil {
			logger.Error("failed to add debug hook", "error", err)
			os.Exit(1)
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = client.Connect(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to connect", "error", err)
		_ = client.Close()
		os.Exit(1)
	}

	if *sub != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, err := client.Subscribe(ctx, func(cl *mqtt.Client, pk *packets.PublishPacket) {
			logger.Info("message", "topic", pk.TopicName, "payload", string(pk.Payload), "qos", pk.Qos(), "retain", pk.Retain())
		}, packets.TopicFilter{Filter: *sub, Qos: q})
		cancel()
		if err != nil {
			logger.Error("failed to subscribe", "error", err, "filter", *sub)
		}
	}

	if *pub != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := client.Publish(ctx, *pub, []byte(*message), q, false)
		cancel()
		if err != nil {
			logger.Error("failed to publish", "error", err, "topic", *pub)
		}
	}

	select {
	case <-sigs:
		logger.Warn("caught signal, stopping...")
	case <-client.Done():
		logger.Error("connection closed", "error", client.Err())
	}

	_ = client.Close()
	logger.Info("main.go finished")
}

// parseQos converts the qos flag to a quality of service level.
func parseQos(v uint) (byte, error) {
	if v > uint(packets.ExactlyOnce) {
		return 0, packets.ErrInvalidQos
	}

	return byte(v), nil
}
