// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package agent implements the runtime's agents: the three SendingAgent
// variants enforcing one delivery-guarantee level each, and the Listening
// agent supervising a transport's inbound mechanism.
//
// The variant is selected once, at construction time, by the Endpoint's
// delivery mode:
//
//   - Inline delivers synchronously on the caller's goroutine.
//   - Buffered holds a bounded in-memory queue ahead of the raw Sender.
//   - Durable routes through a persisted outbox and survives restarts.
package agent

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// sendingBase carries the state shared by all SendingAgent variants.
type sendingBase struct {
	endpoint transport.Endpoint
	sender   transport.Sender
	logger   *log.Entry

	reply      envelope.Address
	replyMutex sync.Mutex
}

func newSendingBase(ep transport.Endpoint, sender transport.Sender, logger *log.Entry) sendingBase {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return sendingBase{
		endpoint: ep,
		sender:   sender,
		logger:   logger.WithField("destination", ep.Address().String()),
	}
}

func (b *sendingBase) Destination() envelope.Address {
	return b.endpoint.Address()
}

func (b *sendingBase) ReplyAddress() envelope.Address {
	b.replyMutex.Lock()
	defer b.replyMutex.Unlock()

	return b.reply
}

func (b *sendingBase) SetReplyAddress(addr envelope.Address) {
	b.replyMutex.Lock()
	defer b.replyMutex.Unlock()

	b.reply = addr
}

// stamp completes an outgoing Envelope's addressing before delivery.
func (b *sendingBase) stamp(env *envelope.Envelope) {
	if env.Destination.IsZero() {
		env.Destination = b.endpoint.Address()
	}

	if env.ReplyTo.IsZero() {
		env.ReplyTo = b.ReplyAddress()
	}
}
