// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "fmt"

// Mode is the delivery-guarantee level of an Endpoint. It selects the
// SendingAgent variant once, at construction time.
type Mode uint8

const (
	// ModeDefault defers to the Options' default mode at compile time.
	ModeDefault Mode = iota

	// ModeInline delivers synchronously on the caller's goroutine. Send
	// errors propagate directly to the caller.
	ModeInline

	// ModeBufferedInMemory queues Envelopes in a bounded in-memory buffer
	// ahead of the raw Sender. No durability across restarts.
	ModeBufferedInMemory

	// ModeDurable routes Envelopes through a persisted outbox before the raw
	// Sender and survives process restarts.
	ModeDurable
)

// ParseMode returns the Mode named by this string, as used within
// configuration files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "inline":
		return ModeInline, nil
	case "buffered":
		return ModeBufferedInMemory, nil
	case "durable":
		return ModeDurable, nil
	default:
		return ModeDefault, fmt.Errorf("unknown delivery mode %q", s)
	}
}

func (mode Mode) String() string {
	switch mode {
	case ModeDefault:
		return "default"
	case ModeInline:
		return "inline"
	case ModeBufferedInMemory:
		return "buffered"
	case ModeDurable:
		return "durable"
	default:
		return fmt.Sprintf("unknown mode (%d)", uint8(mode))
	}
}
