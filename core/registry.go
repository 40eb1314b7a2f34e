// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package core implements the endpoint registry orchestrating the runtime's
// transports and agents.
//
// The Registry maps logical destinations to live sending and listening
// channels. Sending agents are built lazily on first resolution, exactly once
// per address under concurrent access, and cached for the process lifetime.
// Listening agents are built and started once, sequentially, before inbound
// traffic is accepted.
package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/courier-mq/courier-go/agent"
	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
	"github.com/courier-mq/courier-go/transport/local"
)

// ErrRegistryClosed is returned for every operation on a closed Registry.
var ErrRegistryClosed = errors.New("registry was closed")

// sendingMap is the immutable address to SendingAgent snapshot. A cache miss
// copies it, adds the new agent and publishes the copy atomically.
type sendingMap map[envelope.Address]transport.SendingAgent

// namedMap shortcuts the resolution of local queues by their plain name.
type namedMap map[string]transport.SendingAgent

// Registry builds, caches and disposes the runtime's agents. It exclusively
// owns every agent it creates and implements transport.Runtime.
type Registry struct {
	opts   *transport.Options
	logger *log.Entry

	// store is the persistence collaborator handed to durable agents.
	store agent.Outbox

	// transports maps each protocol scheme to its Transport.
	transports map[string]transport.Transport

	// sending and named are read far more often than written. Readers load
	// the current snapshot lock-free; writers hold buildMutex, re-check and
	// swap in a copy.
	sending    atomic.Pointer[sendingMap]
	named      atomic.Pointer[namedMap]
	buildMutex sync.Mutex

	// listeners is only mutated by StartListeners, which runs once before
	// inbound traffic is accepted.
	listeners map[envelope.Address]transport.ListeningAgent

	// stopFlag and its mutex protect the Registry against acting on further
	// requests after the Close method was called once.
	stopFlag      bool
	stopFlagMutex sync.Mutex
}

// NewRegistry creates a Registry over the given Transports. A Transport for
// the local scheme is added if none was given. The outbox store may be nil if
// no Endpoint uses the durable mode.
func NewRegistry(opts *transport.Options, store agent.Outbox, transports ...transport.Transport) (*Registry, error) {
	if opts == nil {
		opts = transport.DefaultOptions()
	}

	r := &Registry{
		opts:       opts,
		logger:     log.WithField("node", opts.NodeName),
		store:      store,
		transports: make(map[string]transport.Transport),
		listeners:  make(map[envelope.Address]transport.ListeningAgent),
	}

	for _, tr := range transports {
		if _, exists := r.transports[tr.Scheme()]; exists {
			return nil, fmt.Errorf("scheme %q is registered twice", tr.Scheme())
		}
		r.transports[tr.Scheme()] = tr
	}

	if _, exists := r.transports[envelope.LocalScheme]; !exists {
		r.transports[envelope.LocalScheme] = local.NewTransport()
	}

	r.sending.Store(&sendingMap{})
	r.named.Store(&namedMap{})

	return r, nil
}

// Options implements transport.Runtime.
func (r *Registry) Options() *transport.Options {
	return r.opts
}

// Log implements transport.Runtime.
func (r *Registry) Log() *log.Entry {
	return r.logger
}

// isStopped signals if the Registry was closed.
func (r *Registry) isStopped() bool {
	r.stopFlagMutex.Lock()
	defer r.stopFlagMutex.Unlock()

	return r.stopFlag
}

// GetOrBuildSendingAgent resolves the SendingAgent for this address, building
// and caching it on the first request. The optional configure callback may
// adjust the Endpoint; it is only meaningful on first creation, before the
// Endpoint is compiled. Concurrent callers racing on the same new address
// observe exactly one constructed agent.
func (r *Registry) GetOrBuildSendingAgent(addr envelope.Address, configure func(transport.Endpoint)) (transport.SendingAgent, error) {
	if r.isStopped() {
		return nil, ErrRegistryClosed
	}
	if addr.IsZero() {
		return nil, transport.ErrNoDestination
	}

	if sa, exists := (*r.sending.Load())[addr]; exists {
		return sa, nil
	}

	r.buildMutex.Lock()
	defer r.buildMutex.Unlock()

	// Close might have raced in between the gate above and this lock. Refuse
	// early instead of building an agent which would be disposed unused.
	if r.isStopped() {
		return nil, ErrRegistryClosed
	}

	// Another caller might have won the race for this address.
	if sa, exists := (*r.sending.Load())[addr]; exists {
		return sa, nil
	}

	tr, exists := r.transports[addr.Scheme]
	if !exists {
		return nil, &transport.UnknownSchemeError{Scheme: addr.Scheme}
	}

	sa, err := r.buildSendingAgent(tr, addr, configure)
	if err != nil {
		return nil, err
	}

	snapshot := *r.sending.Load()
	next := make(sendingMap, len(snapshot)+1)
	for a, cached := range snapshot {
		next[a] = cached
	}
	next[addr] = sa

	// Publishing must be atomic with the stop flag. Close takes its final
	// snapshot under the same mutex, so either this agent lands in that
	// snapshot and Close disposes it, or the flag is already set and this
	// agent is disposed right here.
	r.stopFlagMutex.Lock()
	if r.stopFlag {
		r.stopFlagMutex.Unlock()

		_ = sa.Close()
		return nil, ErrRegistryClosed
	}
	r.sending.Store(&next)
	r.stopFlagMutex.Unlock()

	return sa, nil
}

// buildSendingAgent performs the miss path under buildMutex: endpoint
// resolution, compilation, sender materialization and agent construction.
func (r *Registry) buildSendingAgent(tr transport.Transport, addr envelope.Address, configure func(transport.Endpoint)) (transport.SendingAgent, error) {
	ep, err := tr.GetOrCreateEndpoint(addr)
	if err != nil {
		return nil, &transport.ConstructionError{Destination: addr, Err: err}
	}

	if configure != nil {
		configure(ep)
	}

	if err := ep.Compile(r.opts); err != nil {
		return nil, &transport.ConstructionError{Destination: addr, Err: err}
	}

	ep.SetRuntime(r)

	sender, err := ep.NewSender(r)
	if err != nil {
		return nil, &transport.ConstructionError{Destination: addr, Err: err}
	}

	var reply envelope.Address
	if re := tr.ReplyEndpoint(); re != nil && re.Address() != addr {
		if err := re.Compile(r.opts); err != nil {
			return nil, &transport.ConstructionError{Destination: addr, Err: err}
		}
		reply = re.Address()
	}

	sa, err := r.CreateSendingAgent(reply, sender, ep)
	if err != nil {
		// No agent took ownership of the raw sender, release it here.
		_ = sender.Close()
		return nil, err
	}
	return sa, nil
}

// AgentForLocalQueue resolves the SendingAgent of the local queue with this
// name, caching it under the plain name next to the address cache.
func (r *Registry) AgentForLocalQueue(name string) (transport.SendingAgent, error) {
	if r.isStopped() {
		return nil, ErrRegistryClosed
	}
	if name == "" {
		return nil, transport.ErrNoDestination
	}

	if sa, exists := (*r.named.Load())[name]; exists {
		return sa, nil
	}

	sa, err := r.GetOrBuildSendingAgent(envelope.NewLocalAddress(name), nil)
	if err != nil {
		return nil, err
	}

	r.buildMutex.Lock()
	defer r.buildMutex.Unlock()

	if r.isStopped() {
		return nil, ErrRegistryClosed
	}

	snapshot := *r.named.Load()
	if cached, exists := snapshot[name]; exists {
		return cached, nil
	}

	next := make(namedMap, len(snapshot)+1)
	for n, cached := range snapshot {
		next[n] = cached
	}
	next[name] = sa
	r.named.Store(&next)

	return sa, nil
}

// CreateSendingAgent wraps a raw Sender into the SendingAgent variant
// matching the Endpoint's delivery mode and wires both together. A Sender
// which already is a SendingAgent is returned unchanged. Every failure is
// reported as a ConstructionError carrying the destination; no panic escapes.
func (r *Registry) CreateSendingAgent(reply envelope.Address, sender transport.Sender, ep transport.Endpoint) (sa transport.SendingAgent, err error) {
	if r.isStopped() {
		return nil, ErrRegistryClosed
	}

	defer func() {
		if rec := recover(); rec != nil && err == nil {
			sa = nil
			err = &transport.ConstructionError{
				Destination: ep.Address(),
				Err:         fmt.Errorf("panic: %v", rec),
			}
		}
	}()

	// A pre-built agent stub needs no further wrapping.
	if prebuilt, isAgent := sender.(transport.SendingAgent); isAgent {
		return prebuilt, nil
	}

	if compileErr := ep.Compile(r.opts); compileErr != nil {
		return nil, &transport.ConstructionError{Destination: ep.Address(), Err: compileErr}
	}

	switch ep.Mode() {
	case transport.ModeInline:
		sa = agent.NewInline(ep, sender, r.logger)

	case transport.ModeBufferedInMemory:
		sa = agent.NewBuffered(ep, sender, r.opts.BufferSize, r.logger)

	case transport.ModeDurable:
		durable, durableErr := agent.NewDurable(ep, sender, r.store, r.opts.RetryInterval, r.logger)
		if durableErr != nil {
			return nil, &transport.ConstructionError{Destination: ep.Address(), Err: durableErr}
		}
		sa = durable

	default:
		return nil, &transport.ConstructionError{
			Destination: ep.Address(),
			Err:         &transport.UnknownModeError{Mode: ep.Mode()},
		}
	}

	ep.SetAgent(sa)
	sa.SetReplyAddress(reply)

	if cs, requiresCallback := sender.(transport.CallbackSender); requiresCallback {
		if cb, isTarget := sa.(transport.SendCallback); isTarget {
			cs.RegisterCallback(cb)
		}
	}

	r.logger.WithFields(log.Fields{
		"destination": ep.Address(),
		"mode":        ep.Mode(),
	}).Debug("Built sending agent")

	return sa, nil
}

// EndpointFor looks this address up across all transports' endpoint sets,
// compiling the Endpoint as a side effect. Returns nil for unknown addresses.
func (r *Registry) EndpointFor(addr envelope.Address) transport.Endpoint {
	tr, exists := r.transports[addr.Scheme]
	if !exists {
		return nil
	}

	for _, ep := range tr.Endpoints() {
		if ep.Address() == addr {
			r.compileQuietly(ep)
			return ep
		}
	}
	return nil
}

// EndpointByName looks an Endpoint up by its short name across all
// transports, compiling it as a side effect. Returns nil for unknown names.
func (r *Registry) EndpointByName(name string) transport.Endpoint {
	for _, tr := range r.transports {
		for _, ep := range tr.Endpoints() {
			r.compileQuietly(ep)
			if ep.Name() == name {
				return ep
			}
		}
	}
	return nil
}

func (r *Registry) compileQuietly(ep transport.Endpoint) {
	if err := ep.Compile(r.opts); err != nil {
		r.logger.WithFields(log.Fields{
			"endpoint": ep.Address(),
			"error":    err,
		}).Warn("Compiling endpoint during lookup errored")
	}
}

// FindListeningAgent returns the running ListeningAgent for this address, or
// nil if none listens there.
func (r *Registry) FindListeningAgent(addr envelope.Address) transport.ListeningAgent {
	return r.listeners[addr]
}

// FindListeningAgentByName returns the running ListeningAgent whose
// Endpoint's name matches, ignoring case. Returns nil if none matches.
func (r *Registry) FindListeningAgentByName(name string) transport.ListeningAgent {
	for _, la := range r.listeners {
		if strings.EqualFold(la.Endpoint().Name(), name) {
			return la
		}
	}
	return nil
}

// ActiveListeners returns a snapshot of all running listening agents.
func (r *Registry) ActiveListeners() []transport.ListeningAgent {
	las := make([]transport.ListeningAgent, 0, len(r.listeners))
	for _, la := range r.listeners {
		las = append(las, la)
	}
	return las
}

// StartListeners compiles every listening Endpoint across every Transport,
// excluding local queues, and starts one ListeningAgent per Endpoint. It runs
// once, sequentially, before inbound traffic is accepted. The first startup
// failure aborts the whole sequence.
func (r *Registry) StartListeners() error {
	if r.isStopped() {
		return ErrRegistryClosed
	}

	for scheme, tr := range r.transports {
		// Local queues are push-only and never started independently.
		if scheme == envelope.LocalScheme {
			continue
		}

		for _, ep := range tr.Endpoints() {
			if !ep.IsListener() {
				continue
			}

			if err := ep.Compile(r.opts); err != nil {
				return &transport.ConstructionError{Destination: ep.Address(), Err: err}
			}
			ep.SetRuntime(r)

			listener, err := ep.NewListener(r)
			if err != nil {
				return &transport.ConstructionError{Destination: ep.Address(), Err: err}
			}

			la := agent.NewListening(ep, listener, r.logger)
			if err := la.Start(); err != nil {
				return err
			}

			r.listeners[la.Address()] = la

			r.logger.WithField("address", la.Address()).Info("Started listening agent")
		}
	}

	return nil
}

// Close disposes every cached sending agent first, so outbound work drains,
// and every listening agent afterwards. No further Registry operation is
// valid once Close was called; closing twice is a no-op.
func (r *Registry) Close() error {
	// The final snapshot is taken in the same critical section which sets the
	// stop flag. An in-flight miss path publishes under this mutex too, so
	// its agent is either part of this snapshot or disposed by the resolver.
	r.stopFlagMutex.Lock()
	if r.stopFlag {
		r.stopFlagMutex.Unlock()
		return nil
	}
	r.stopFlag = true
	snapshot := *r.sending.Load()
	r.stopFlagMutex.Unlock()

	r.logger.Debug("Registry received closing signal")

	var result *multierror.Error

	for addr, sa := range snapshot {
		if err := sa.Close(); err != nil {
			result = multierror.Append(result, err)

			r.logger.WithFields(log.Fields{
				"destination": addr,
				"error":       err,
			}).Warn("Closing sending agent errored")
		}
	}

	for addr, la := range r.listeners {
		if err := la.Stop(); err != nil {
			result = multierror.Append(result, err)

			r.logger.WithFields(log.Fields{
				"address": addr,
				"error":   err,
			}).Warn("Stopping listening agent errored")
		}
	}

	if closer, ok := r.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
