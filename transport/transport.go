// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport defines the contracts between the runtime's registry and
// the transports carrying messages.
//
// A Transport is the family of all Endpoints sharing one protocol scheme and
// the factory for those Endpoints. An Endpoint describes one logical
// destination: its address, its delivery mode and whether it listens for
// inbound messages.
//
// The Sender is a transport's raw outbound mechanism for one destination. A
// SendingAgent wraps a Sender and enforces one delivery-guarantee level on
// top of it; the concrete agents live in the agent package. A Sender
// requiring delivery acknowledgments additionally implements CallbackSender
// and will be registered against a SendCallback-capable agent.
//
// The Listener is a transport's raw inbound mechanism for one listening
// Endpoint, wrapped into a ListeningAgent by the runtime.
package transport

import (
	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/envelope"
)

// Transport is a family of Endpoints sharing a protocol scheme. Each scheme
// is registered at most once; the registry resolves addresses through it.
type Transport interface {
	// Scheme returns the protocol scheme this Transport answers to.
	Scheme() string

	// GetOrCreateEndpoint returns the Endpoint for this address, creating it
	// on first request. A Transport owns its Endpoint instances; the registry
	// never constructs an Endpoint itself.
	GetOrCreateEndpoint(addr envelope.Address) (Endpoint, error)

	// Endpoints enumerates all Endpoints known to this Transport.
	Endpoints() []Endpoint

	// ReplyEndpoint returns the Endpoint responses for this scheme should be
	// addressed to, or nil if the Transport has none.
	ReplyEndpoint() Endpoint
}

// Sender is the raw outbound mechanism of a Transport for one destination.
// Delivery guarantees are layered on top by a SendingAgent.
type Sender interface {
	// Destination returns the Address this Sender transmits to.
	Destination() envelope.Address

	// Send transmits one Envelope. This method should be thread safe and
	// finish transmitting one Envelope before acting on the next.
	Send(env *envelope.Envelope) error

	// Close shuts this Sender down.
	Close() error
}

// SendCallback is the acknowledgment target capability of a SendingAgent.
// A Sender which requires callbacks reports each Envelope's fate here.
type SendCallback interface {
	// MarkSuccessful acknowledges the delivery of an Envelope.
	MarkSuccessful(env *envelope.Envelope)

	// MarkFailed reports a failed delivery attempt.
	MarkFailed(env *envelope.Envelope, reason error)
}

// CallbackSender is a Sender which requires a SendCallback to be registered
// before use. The registry performs the registration when it wraps such a
// Sender into a callback-capable SendingAgent.
type CallbackSender interface {
	Sender

	// RegisterCallback hands this Sender its acknowledgment target.
	RegisterCallback(cb SendCallback)
}

// SendingAgent delivers outbound messages for one Endpoint under one
// delivery-guarantee level. Agents are created lazily by the registry, cached
// for the process lifetime and disposed exactly once at shutdown.
type SendingAgent interface {
	// Destination returns the Address this agent delivers to.
	Destination() envelope.Address

	// ReplyAddress returns the Address stamped on outgoing Envelopes as their
	// reply destination. May be the zero Address.
	ReplyAddress() envelope.Address

	// SetReplyAddress defines the reply destination for outgoing Envelopes.
	SetReplyAddress(addr envelope.Address)

	// Send hands one Envelope to this agent for delivery.
	Send(env *envelope.Envelope) error

	// Close shuts this agent down, draining buffered work first. Closing an
	// already closed agent is a no-op.
	Close() error
}

// Listener is the raw inbound mechanism of a Transport for one listening
// Endpoint.
type Listener interface {
	// Address returns the Address this Listener receives for.
	Address() envelope.Address

	// Start binds or connects this Listener. It is called once, before any
	// inbound traffic is accepted, and may block until the setup finished.
	Start() error

	// Close halts inbound acceptance and releases the transport resources.
	Close() error
}

// ListeningAgent supervises one Listener's lifecycle for the runtime.
type ListeningAgent interface {
	// Address returns the resolved Address of the listening Endpoint.
	Address() envelope.Address

	// Endpoint returns the listening Endpoint.
	Endpoint() Endpoint

	// Start starts the underlying Listener. A failure here aborts the whole
	// listener startup sequence.
	Start() error

	// Stop halts inbound acceptance. Stopping twice is a no-op.
	Stop() error
}

// Runtime is the registry's surface visible to Endpoints and Transports,
// e.g., for compilation defaults and logging.
type Runtime interface {
	// Options returns the global endpoint options.
	Options() *Options

	// Log returns the runtime's log entry to derive agent loggers from.
	Log() *log.Entry
}
