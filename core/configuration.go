// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package core

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/courier-mq/courier-go/agent"
	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/outbox"
	"github.com/courier-mq/courier-go/transport"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Node    nodeConf
	Options optionsConf
	Outbox  outboxConf
	Queue   []queueConf
}

// nodeConf describes the Node-configuration block.
type nodeConf struct {
	Name string
}

// optionsConf describes the Options-configuration block, the global endpoint
// defaults.
type optionsConf struct {
	DefaultMode   string `toml:"default-mode"`
	BufferSize    int    `toml:"buffer-size"`
	RetryInterval string `toml:"retry-interval"`
}

// outboxConf describes the Outbox-configuration block.
type outboxConf struct {
	Store string
}

// queueConf describes one Queue-configuration block, declaring a local queue.
type queueConf struct {
	Name     string
	Mode     string
	Listener bool
}

// parseOptions creates the global Options from the configuration.
func parseOptions(conf tomlConfig) (*transport.Options, error) {
	opts := transport.DefaultOptions()
	opts.NodeName = conf.Node.Name

	if conf.Options.DefaultMode != "" {
		mode, err := transport.ParseMode(conf.Options.DefaultMode)
		if err != nil {
			return nil, err
		}
		opts.DefaultMode = mode
	}

	if conf.Options.BufferSize > 0 {
		opts.BufferSize = conf.Options.BufferSize
	}

	if conf.Options.RetryInterval != "" {
		interval, err := time.ParseDuration(conf.Options.RetryInterval)
		if err != nil {
			return nil, err
		}
		opts.RetryInterval = interval
	}

	return opts, nil
}

// declareQueue creates and configures one local queue from its configuration
// block.
func declareQueue(r *Registry, conf queueConf) error {
	if conf.Name == "" {
		return fmt.Errorf("queue declaration misses a name")
	}

	var mode = transport.ModeDefault
	if conf.Mode != "" {
		var err error
		if mode, err = transport.ParseMode(conf.Mode); err != nil {
			return err
		}
	}

	_, err := r.GetOrBuildSendingAgent(envelope.NewLocalAddress(conf.Name), func(ep transport.Endpoint) {
		if base, ok := ep.(interface {
			SetMode(transport.Mode)
			SetListener(bool)
		}); ok {
			base.SetMode(mode)
			base.SetListener(conf.Listener)
		}
	})
	return err
}

// LoadConfig parses the given TOML configuration file and assembles a ready
// Registry: global options, the outbox store if one is declared, the given
// Transports and every declared local queue.
func LoadConfig(filename string, transports ...transport.Transport) (*Registry, error) {
	var conf tomlConfig
	if _, err := toml.DecodeFile(filename, &conf); err != nil {
		return nil, err
	}

	opts, err := parseOptions(conf)
	if err != nil {
		return nil, err
	}

	var store agent.Outbox
	if conf.Outbox.Store != "" {
		if store, err = outbox.NewStore(conf.Outbox.Store); err != nil {
			return nil, err
		}
	}

	r, err := NewRegistry(opts, store, transports...)
	if err != nil {
		return nil, err
	}

	for _, q := range conf.Queue {
		if err := declareQueue(r, q); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	return r, nil
}
