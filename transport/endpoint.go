// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"sync"

	"github.com/courier-mq/courier-go/envelope"
)

// Endpoint describes one logical destination: its Address, its delivery Mode
// and whether it listens for inbound messages. Endpoints must be compiled
// against the global Options before first use; compilation is idempotent.
//
// The agent and runtime back-references are non-owning associations, set at
// most once. The registry remains the sole owner of every agent for disposal.
type Endpoint interface {
	// Address returns this Endpoint's identity.
	Address() envelope.Address

	// Name returns the short name, defaulted from the Address at compile time.
	Name() string

	// Mode returns the delivery-guarantee level.
	Mode() Mode

	// IsListener reports whether this Endpoint receives inbound messages.
	IsListener() bool

	// Compile validates and defaults this Endpoint against the global
	// Options. Compiling an already compiled Endpoint changes nothing.
	Compile(opts *Options) error

	// Agent returns the SendingAgent wired to this Endpoint, or nil.
	Agent() SendingAgent

	// SetAgent wires the SendingAgent back-reference. Only the first call has
	// an effect.
	SetAgent(agent SendingAgent)

	// Runtime returns the Runtime this Endpoint was resolved by, or nil.
	Runtime() Runtime

	// SetRuntime wires the Runtime back-reference. Only the first call has an
	// effect.
	SetRuntime(rt Runtime)

	// NewSender materializes the raw outbound mechanism for this Endpoint.
	NewSender(rt Runtime) (Sender, error)

	// NewListener materializes the raw inbound mechanism for this Endpoint.
	NewListener(rt Runtime) (Listener, error)
}

// BaseEndpoint carries the state shared by all Endpoint implementations and
// provides the idempotent compile bookkeeping. Transports embed it and only
// add NewSender and NewListener.
type BaseEndpoint struct {
	addr     envelope.Address
	name     string
	mode     Mode
	listener bool

	agent    SendingAgent
	runtime  Runtime
	compiled bool

	mutex sync.Mutex
}

// NewBaseEndpoint creates the shared endpoint state for the given address.
func NewBaseEndpoint(addr envelope.Address, mode Mode, listener bool) BaseEndpoint {
	return BaseEndpoint{
		addr:     addr,
		mode:     mode,
		listener: listener,
	}
}

func (e *BaseEndpoint) Address() envelope.Address { return e.addr }

func (e *BaseEndpoint) Name() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.name == "" {
		return e.addr.Name
	}
	return e.name
}

// SetName overrides the short name. Must be called before compilation.
func (e *BaseEndpoint) SetName(name string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.compiled {
		e.name = name
	}
}

func (e *BaseEndpoint) Mode() Mode {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.mode
}

// SetMode overrides the delivery mode. Must be called before compilation.
func (e *BaseEndpoint) SetMode(mode Mode) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.compiled {
		e.mode = mode
	}
}

func (e *BaseEndpoint) IsListener() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.listener
}

// SetListener flags this Endpoint as an inbound listener. Must be called
// before compilation.
func (e *BaseEndpoint) SetListener(listener bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.compiled {
		e.listener = listener
	}
}

// Compile validates and defaults this Endpoint's state. The first call
// settles name and mode; every further call is a no-op.
func (e *BaseEndpoint) Compile(opts *Options) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.compiled {
		return nil
	}

	if e.name == "" {
		e.name = e.addr.Name
	}

	if e.mode == ModeDefault {
		if opts != nil && opts.DefaultMode != ModeDefault {
			e.mode = opts.DefaultMode
		} else {
			e.mode = ModeBufferedInMemory
		}
	}

	if e.mode > ModeDurable {
		return &UnknownModeError{Mode: e.mode}
	}

	e.compiled = true
	return nil
}

func (e *BaseEndpoint) Agent() SendingAgent {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.agent
}

func (e *BaseEndpoint) SetAgent(agent SendingAgent) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.agent == nil {
		e.agent = agent
	}
}

func (e *BaseEndpoint) Runtime() Runtime {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.runtime
}

func (e *BaseEndpoint) SetRuntime(rt Runtime) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.runtime == nil {
		e.runtime = rt
	}
}
