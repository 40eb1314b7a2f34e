// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// Outbox is the persistence collaborator consumed by a Durable agent.
type Outbox interface {
	// Insert stores an Envelope. Inserting a known ID changes nothing.
	Insert(env *envelope.Envelope) error

	// Remove deletes the Envelope with this ID.
	Remove(id uuid.UUID) error

	// Pending returns every stored Envelope addressed to this destination.
	Pending(dest envelope.Address) ([]*envelope.Envelope, error)
}

// Durable is the SendingAgent routing every Envelope through a persisted
// outbox before handing it to the raw Sender. Pending entries survive a
// process restart and are re-sent when the agent is constructed again.
//
// Durable implements transport.SendCallback: an acknowledged Envelope is
// removed from the outbox, a failed one is stored again for the next drain.
type Durable struct {
	sendingBase

	store Outbox

	retryInterval time.Duration
	wakeup        chan struct{}

	stopSyn chan struct{}
	stopAck chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewDurable creates a Durable agent on top of the given outbox store.
// Envelopes already pending for this destination are picked up immediately.
func NewDurable(ep transport.Endpoint, sender transport.Sender, store Outbox, retryInterval time.Duration, logger *log.Entry) (*Durable, error) {
	if store == nil {
		return nil, fmt.Errorf("durable agent for %v requires an outbox store", ep.Address())
	}
	if retryInterval <= 0 {
		retryInterval = transport.DefaultOptions().RetryInterval
	}

	a := &Durable{
		sendingBase:   newSendingBase(ep, sender, logger),
		store:         store,
		retryInterval: retryInterval,
		wakeup:        make(chan struct{}, 1),
		stopSyn:       make(chan struct{}),
		stopAck:       make(chan struct{}),
	}

	// Catch entries left behind by an earlier process.
	a.wake()

	go a.handler()

	return a, nil
}

// handler is the internal worker goroutine, draining the outbox on demand and
// on a periodic tick.
func (a *Durable) handler() {
	ticker := time.NewTicker(a.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopSyn:
			a.drain()
			close(a.stopAck)
			return

		case <-a.wakeup:
			a.drain()

		case <-ticker.C:
			a.drain()
		}
	}
}

// drain hands every pending Envelope to the raw Sender. A failed handoff
// leaves the remainder in the outbox for the next tick.
func (a *Durable) drain() {
	envs, err := a.store.Pending(a.Destination())
	if err != nil {
		a.logger.WithError(err).Warn("Querying pending envelopes errored")
		return
	}

	for _, env := range envs {
		env.Attempts++

		if err := a.sender.Send(env); err != nil {
			a.logger.WithFields(log.Fields{
				"envelope": env.ID,
				"error":    err,
			}).Warn("Durable agent failed to deliver an envelope, keeping it stored")
			return
		}

		if err := a.store.Remove(env.ID); err != nil {
			a.logger.WithFields(log.Fields{
				"envelope": env.ID,
				"error":    err,
			}).Warn("Removing a delivered envelope errored")
		}
	}
}

// Send persists the Envelope in the outbox and wakes the worker. The handoff
// to the raw Sender happens asynchronously.
func (a *Durable) Send(env *envelope.Envelope) error {
	a.stamp(env)

	if err := a.store.Insert(env); err != nil {
		return err
	}

	a.wake()
	return nil
}

func (a *Durable) wake() {
	select {
	case a.wakeup <- struct{}{}:
	default:
	}
}

// MarkSuccessful removes an acknowledged Envelope from the outbox.
func (a *Durable) MarkSuccessful(env *envelope.Envelope) {
	if err := a.store.Remove(env.ID); err != nil {
		a.logger.WithFields(log.Fields{
			"envelope": env.ID,
			"error":    err,
		}).Warn("Removing an acknowledged envelope errored")
	}
}

// MarkFailed stores a failed Envelope again; the next drain retries it.
func (a *Durable) MarkFailed(env *envelope.Envelope, reason error) {
	a.logger.WithFields(log.Fields{
		"envelope": env.ID,
		"error":    reason,
	}).Warn("Envelope delivery failed, storing it for a retry")

	if err := a.store.Insert(env); err != nil {
		a.logger.WithFields(log.Fields{
			"envelope": env.ID,
			"error":    err,
		}).Warn("Storing a failed envelope errored")
	}
}

// Close drains the outbox a last time and shuts the raw Sender down. Pending
// envelopes stay stored for the next process. Further calls are no-ops.
func (a *Durable) Close() error {
	a.closeOnce.Do(func() {
		close(a.stopSyn)
		<-a.stopAck

		a.closeErr = a.sender.Close()
	})
	return a.closeErr
}
