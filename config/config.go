// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package config reads client options and hooks from JSON or YAML data.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	mqtt "github.com/mqutekitty/client"
	"github.com/mqutekitty/client/hooks/debug"
	"github.com/mqutekitty/client/hooks/storage/badger"
	"github.com/mqutekitty/client/hooks/storage/bolt"
	"github.com/mqutekitty/client/hooks/storage/pebble"
	"github.com/mqutekitty/client/hooks/storage/redis"
	"github.com/mqutekitty/client/packets"
	"github.com/mqutekitty/client/transport"
)

// config defines the structure of configuration data to be parsed from a config source.
type config struct {
	Options     mqtt.Options `yaml:"options" json:"options"`
	HookConfigs HookConfigs  `yaml:"hooks" json:"hooks"`
}

// HookConfigs contains configurations to enable individual hooks.
type HookConfigs struct {
	Storage *HookStorageConfig `yaml:"storage" json:"storage"`
	Debug   *debug.Options     `yaml:"debug" json:"debug"`
}

// HookStorageConfig contains configurations for the different storage hooks.
type HookStorageConfig struct {
	Badger *badger.Options `yaml:"badger" json:"badger"`
	Bolt   *bolt.Options   `yaml:"bolt" json:"bolt"`
	Pebble *pebble.Options `yaml:"pebble" json:"pebble"`
	Redis  *redis.Options  `yaml:"redis" json:"redis"`
}

// ToHooks converts Hook file configurations into Hooks to be added to the client.
func (hc HookConfigs) ToHooks() []mqtt.HookLoadConfig {
	var hlc []mqtt.HookLoadConfig

	if hc.Storage != nil {
		hlc = append(hlc, hc.toHooksStorage()...)
	}

	if hc.Debug != nil {
		hlc = append(hlc, mqtt.HookLoadConfig{
			Hook:   new(debug.Hook),
			Config: hc.Debug,
		})
	}

	return hlc
}

// toHooksStorage converts storage hook configurations into storage hooks.
func (hc HookConfigs) toHooksStorage() []mqtt.HookLoadConfig {
	var hlc []mqtt.HookLoadConfig
	if hc.Storage.Badger != nil {
		hlc = append(hlc, mqtt.HookLoadConfig{
			Hook:   new(badger.Hook),
			Config: hc.Storage.Badger,
		})
	}

	if hc.Storage.Bolt != nil {
		hlc = append(hlc, mqtt.HookLoadConfig{
			Hook:   new(bolt.Hook),
			Config: hc.Storage.Bolt,
		})
	}

	if hc.Storage.Redis != nil {
		hlc = append(hlc, mqtt.HookLoadConfig{
			Hook:   new(redis.Hook),
			Config: hc.Storage.Redis,
		})
	}

	if hc.Storage.Pebble != nil {
		hlc = append(hlc, mqtt.HookLoadConfig{
			Hook:   new(pebble.Hook),
			Config: hc.Storage.Pebble,
		})
	}
	return hlc
}

// FromBytes unmarshals a byte slice of JSON or YAML config data into a valid client options value.
// Any hooks configurations are converted into Hooks using the toHooks methods in this package.
func FromBytes(b []byte) (*mqtt.Options, error) {
	c := new(config)

	if len(b) == 0 {
		return nil, nil
	}

	if b[0] == '{' {
		err := json.Unmarshal(b, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", mqtt.ErrOptionsUnreadable, err)
		}
	} else {
		err := yaml.Unmarshal(b, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", mqtt.ErrOptionsUnreadable, err)
		}
	}

	o := c.Options
	if err := validate(&o); err != nil {
		return nil, fmt.Errorf("%w: %w", mqtt.ErrOptionsUnreadable, err)
	}

	o.Hooks = c.HookConfigs.ToHooks()

	return &o, nil
}

// validate rejects options which could never produce a connection. A tcp transport
// may omit its address and fall back to the default broker address.
func validate(o *mqtt.Options) error {
	switch o.Transport.Type {
	case "", transport.TypeTCP:
	case transport.TypeUnix, transport.TypeWebsocket:
		if o.Transport.Address == "" {
			return fmt.Errorf("%w: %s", transport.ErrMissingAddress, o.Transport.Type)
		}
	default:
		return fmt.Errorf("%w: %s", transport.ErrUnknownType, o.Transport.Type)
	}

	if o.Will != nil && o.Will.Qos > packets.ExactlyOnce {
		return fmt.Errorf("will: %w", packets.ErrInvalidQos)
	}

	return nil
}
