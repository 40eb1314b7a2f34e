// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package local implements the in-process transport for the "local" scheme.
//
// Local queues hand Envelopes directly from senders to in-process consumers
// through a bounded channel. They are push-only: even when flagged as
// listeners they are never started as independent listening agents.
package local

import (
	"fmt"
	"sync"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// replyQueueName is the local queue receiving responses for this node.
const replyQueueName = "replies"

// Transport is the in-process Transport, owning one Queue per local address.
type Transport struct {
	queues map[envelope.Address]*Queue
	mutex  sync.Mutex
}

// NewTransport creates the in-process Transport.
func NewTransport() *Transport {
	return &Transport{
		queues: make(map[envelope.Address]*Queue),
	}
}

func (t *Transport) Scheme() string {
	return envelope.LocalScheme
}

// GetOrCreateEndpoint returns the Queue for this local address, creating it
// on first request.
func (t *Transport) GetOrCreateEndpoint(addr envelope.Address) (transport.Endpoint, error) {
	if !addr.IsLocal() {
		return nil, fmt.Errorf("address %v is no local address", addr)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if q, exists := t.queues[addr]; exists {
		return q, nil
	}

	q := newQueue(addr)
	t.queues[addr] = q
	return q, nil
}

func (t *Transport) Endpoints() []transport.Endpoint {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	eps := make([]transport.Endpoint, 0, len(t.queues))
	for _, q := range t.queues {
		eps = append(eps, q)
	}
	return eps
}

// ReplyEndpoint returns the node's local reply queue, creating it on first
// request.
func (t *Transport) ReplyEndpoint() transport.Endpoint {
	ep, _ := t.GetOrCreateEndpoint(envelope.NewLocalAddress(replyQueueName))
	return ep
}

// Queue is the Endpoint of one in-process queue.
type Queue struct {
	transport.BaseEndpoint

	deliveries chan *envelope.Envelope
	chanOnce   sync.Once
}

func newQueue(addr envelope.Address) *Queue {
	return &Queue{
		BaseEndpoint: transport.NewBaseEndpoint(addr, transport.ModeDefault, false),
	}
}

// Compile settles the shared endpoint state and sizes the delivery channel.
func (q *Queue) Compile(opts *transport.Options) error {
	if err := q.BaseEndpoint.Compile(opts); err != nil {
		return err
	}

	q.chanOnce.Do(func() {
		size := transport.DefaultOptions().BufferSize
		if opts != nil && opts.BufferSize > 0 {
			size = opts.BufferSize
		}
		q.deliveries = make(chan *envelope.Envelope, size)
	})

	return nil
}

// Receive exposes the channel in-process consumers read this Queue from.
func (q *Queue) Receive() <-chan *envelope.Envelope {
	_ = q.Compile(nil)
	return q.deliveries
}

// NewSender materializes a Sender pushing into this Queue.
func (q *Queue) NewSender(rt transport.Runtime) (transport.Sender, error) {
	var opts *transport.Options
	if rt != nil {
		opts = rt.Options()
	}
	if err := q.Compile(opts); err != nil {
		return nil, err
	}

	return &sender{queue: q}, nil
}

// NewListener fails: local queues are push-only and have no independent
// inbound mechanism.
func (q *Queue) NewListener(_ transport.Runtime) (transport.Listener, error) {
	return nil, fmt.Errorf("local queue %v cannot listen independently", q.Address())
}

// sender pushes Envelopes into its Queue's delivery channel.
type sender struct {
	queue *Queue
}

func (s *sender) Destination() envelope.Address {
	return s.queue.Address()
}

func (s *sender) Send(env *envelope.Envelope) error {
	select {
	case s.queue.deliveries <- env:
		return nil
	default:
		return fmt.Errorf("local queue %v is full", s.queue.Address())
	}
}

func (s *sender) Close() error {
	return nil
}
