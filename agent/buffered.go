// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// maxBufferedAttempts bounds the re-queuing of failed Envelopes.
const maxBufferedAttempts = 2

// Buffered is the SendingAgent holding a bounded in-memory queue ahead of the
// raw Sender, decoupling producer latency from transport latency. Queued
// Envelopes do not survive a process restart.
//
// Buffered implements transport.SendCallback: failed Envelopes are re-queued
// once and dropped afterwards.
type Buffered struct {
	sendingBase

	queue chan *envelope.Envelope

	stopSyn chan struct{}
	stopAck chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewBuffered creates a Buffered agent whose queue holds up to size
// Envelopes. A non-positive size falls back to the default buffer size.
func NewBuffered(ep transport.Endpoint, sender transport.Sender, size int, logger *log.Entry) *Buffered {
	if size <= 0 {
		size = transport.DefaultOptions().BufferSize
	}

	a := &Buffered{
		sendingBase: newSendingBase(ep, sender, logger),
		queue:       make(chan *envelope.Envelope, size),
		stopSyn:     make(chan struct{}),
		stopAck:     make(chan struct{}),
	}

	go a.handler()

	return a
}

// handler is the internal worker goroutine, draining the queue into the raw
// Sender until Close is called.
func (a *Buffered) handler() {
	for {
		select {
		case env := <-a.queue:
			a.deliver(env)

		case <-a.stopSyn:
			// Drain the remaining queue before acknowledging the stop.
			for {
				select {
				case env := <-a.queue:
					a.deliver(env)
				default:
					close(a.stopAck)
					return
				}
			}
		}
	}
}

func (a *Buffered) deliver(env *envelope.Envelope) {
	env.Attempts++

	if err := a.sender.Send(env); err != nil {
		a.logger.WithFields(log.Fields{
			"envelope": env.ID,
			"error":    err,
		}).Warn("Buffered agent failed to deliver an envelope")
	}
}

// Send enqueues the Envelope, blocking while the queue is full.
func (a *Buffered) Send(env *envelope.Envelope) error {
	a.stamp(env)

	select {
	case <-a.stopSyn:
		return fmt.Errorf("buffered agent for %v is closed", a.Destination())
	default:
	}

	select {
	case a.queue <- env:
		return nil
	case <-a.stopSyn:
		return fmt.Errorf("buffered agent for %v is closed", a.Destination())
	}
}

// MarkSuccessful acknowledges a delivered Envelope.
func (a *Buffered) MarkSuccessful(env *envelope.Envelope) {
	a.logger.WithField("envelope", env.ID).Debug("Envelope was acknowledged")
}

// MarkFailed re-queues a failed Envelope once; a repeated failure or a full
// queue drops it.
func (a *Buffered) MarkFailed(env *envelope.Envelope, reason error) {
	a.logger.WithFields(log.Fields{
		"envelope": env.ID,
		"error":    reason,
	}).Warn("Envelope delivery failed")

	if env.Attempts >= maxBufferedAttempts {
		return
	}

	select {
	case a.queue <- env:
	default:
		a.logger.WithField("envelope", env.ID).Warn("Queue is full, dropping failed envelope")
	}
}

// Close drains the queue into the raw Sender and shuts it down. Further calls
// are no-ops.
func (a *Buffered) Close() error {
	a.closeOnce.Do(func() {
		close(a.stopSyn)
		<-a.stopAck

		a.closeErr = a.sender.Close()
	})
	return a.closeErr
}
