// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// Inline is the SendingAgent delivering synchronously on the caller's
// goroutine. There is no buffering and no durability; send errors propagate
// directly to the caller.
type Inline struct {
	sendingBase

	closeOnce sync.Once
	closeErr  error
}

// NewInline creates an Inline agent for the given Endpoint, wrapping the raw
// Sender.
func NewInline(ep transport.Endpoint, sender transport.Sender, logger *log.Entry) *Inline {
	return &Inline{
		sendingBase: newSendingBase(ep, sender, logger),
	}
}

// Send delivers the Envelope through the raw Sender and returns its error
// unchanged.
func (a *Inline) Send(env *envelope.Envelope) error {
	a.stamp(env)
	env.Attempts++

	return a.sender.Send(env)
}

// Close shuts the raw Sender down. Further calls are no-ops.
func (a *Inline) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.sender.Close()
	})
	return a.closeErr
}
