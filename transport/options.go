// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "time"

// Options are the global endpoint defaults applied during compilation.
type Options struct {
	// NodeName identifies this runtime instance, e.g., within logs.
	NodeName string

	// DefaultMode is the Mode for Endpoints which do not declare their own.
	DefaultMode Mode

	// BufferSize bounds the in-memory queue of buffered sending agents and
	// of local queues.
	BufferSize int

	// RetryInterval is the duration between two outbox drain attempts of a
	// durable sending agent.
	RetryInterval time.Duration
}

// DefaultOptions returns Options with sane defaults.
func DefaultOptions() *Options {
	return &Options{
		DefaultMode:   ModeBufferedInMemory,
		BufferSize:    100,
		RetryInterval: 10 * time.Second,
	}
}
