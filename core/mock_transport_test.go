// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// mockTransport mocks a Transport where all fields are directly editable.
type mockTransport struct {
	scheme string

	// failGetOrCreate indicates if creating endpoints should fail.
	failGetOrCreate bool

	endpoints map[envelope.Address]*mockEndpoint
	reply     *mockEndpoint

	mutex sync.Mutex
}

func newMockTransport(scheme string) *mockTransport {
	return &mockTransport{
		scheme:    scheme,
		endpoints: make(map[envelope.Address]*mockEndpoint),
	}
}

func (m *mockTransport) Scheme() string { return m.scheme }

func (m *mockTransport) GetOrCreateEndpoint(addr envelope.Address) (transport.Endpoint, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.failGetOrCreate {
		return nil, fmt.Errorf("failGetOrCreate := true")
	}

	if ep, exists := m.endpoints[addr]; exists {
		return ep, nil
	}

	ep := newMockEndpoint(addr, transport.ModeDefault)
	m.endpoints[addr] = ep
	return ep, nil
}

// addEndpoint pre-declares an endpoint, e.g., a listening one.
func (m *mockTransport) addEndpoint(addr envelope.Address, mode transport.Mode, listener bool) *mockEndpoint {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ep := newMockEndpoint(addr, mode)
	ep.SetListener(listener)
	m.endpoints[addr] = ep
	return ep
}

func (m *mockTransport) Endpoints() []transport.Endpoint {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	eps := make([]transport.Endpoint, 0, len(m.endpoints))
	for _, ep := range m.endpoints {
		eps = append(eps, ep)
	}
	return eps
}

func (m *mockTransport) ReplyEndpoint() transport.Endpoint {
	if m.reply == nil {
		return nil
	}
	return m.reply
}

// blockingTransport is a mockTransport whose endpoint creation parks until
// released, overlapping a slow resolution with other registry operations.
type blockingTransport struct {
	*mockTransport

	entered chan struct{}
	release chan struct{}
}

func newBlockingTransport(scheme string) *blockingTransport {
	return &blockingTransport{
		mockTransport: newMockTransport(scheme),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *blockingTransport) GetOrCreateEndpoint(addr envelope.Address) (transport.Endpoint, error) {
	close(b.entered)
	<-b.release

	return b.mockTransport.GetOrCreateEndpoint(addr)
}

// mockEndpoint mocks an Endpoint whose raw mechanisms are editable mocks.
type mockEndpoint struct {
	transport.BaseEndpoint

	// useCallbackSender lets NewSender build senders requiring callbacks.
	useCallbackSender bool

	// failNewSender and failNewListener indicate if the raw mechanisms can
	// be materialized.
	failNewSender   bool
	failNewListener bool

	// listenerStartFail is handed down to created mockListeners.
	listenerStartFail bool

	sendersBuilt   int
	listenersBuilt int

	lastSender   *mockSender
	lastCallback *mockCallbackSender
	lastListener *mockListener

	mutex sync.Mutex
}

func newMockEndpoint(addr envelope.Address, mode transport.Mode) *mockEndpoint {
	return &mockEndpoint{
		BaseEndpoint: transport.NewBaseEndpoint(addr, mode, false),
	}
}

func (ep *mockEndpoint) NewSender(_ transport.Runtime) (transport.Sender, error) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	if ep.failNewSender {
		return nil, fmt.Errorf("failNewSender := true")
	}

	ep.sendersBuilt++
	ep.lastSender = newMockSender(ep.Address())

	if ep.useCallbackSender {
		ep.lastCallback = &mockCallbackSender{mockSender: ep.lastSender}
		return ep.lastCallback, nil
	}
	return ep.lastSender, nil
}

func (ep *mockEndpoint) NewListener(_ transport.Runtime) (transport.Listener, error) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	if ep.failNewListener {
		return nil, fmt.Errorf("failNewListener := true")
	}

	ep.listenersBuilt++
	ep.lastListener = &mockListener{
		addr:      ep.Address(),
		startFail: ep.listenerStartFail,
	}
	return ep.lastListener, nil
}

func (ep *mockEndpoint) builtSenders() int {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	return ep.sendersBuilt
}

// mockSender mocks a Sender where all fields are directly editable.
type mockSender struct {
	dest envelope.Address

	sendFail bool

	sent   []*envelope.Envelope
	closed int

	mutex sync.Mutex
}

func newMockSender(dest envelope.Address) *mockSender {
	return &mockSender{dest: dest}
}

func (m *mockSender) Destination() envelope.Address { return m.dest }

func (m *mockSender) Send(env *envelope.Envelope) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.sendFail {
		return fmt.Errorf("sendFail := true")
	}

	m.sent = append(m.sent, env)
	return nil
}

func (m *mockSender) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed++
	return nil
}

func (m *mockSender) closedCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.closed
}

// mockCallbackSender is a mockSender requiring callback registration.
type mockCallbackSender struct {
	*mockSender

	cb transport.SendCallback
}

func (m *mockCallbackSender) RegisterCallback(cb transport.SendCallback) {
	m.cb = cb
}

// mockListener mocks a Listener where all fields are directly editable.
type mockListener struct {
	addr envelope.Address

	startFail bool

	started int
	closed  int

	mutex sync.Mutex
}

func (m *mockListener) Address() envelope.Address { return m.addr }

func (m *mockListener) Start() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.startFail {
		return fmt.Errorf("startFail := true")
	}

	m.started++
	return nil
}

func (m *mockListener) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed++
	return nil
}

// mockOutbox is an in-memory Outbox for durable agents within these tests.
type mockOutbox struct {
	envs  map[uuid.UUID]*envelope.Envelope
	mutex sync.Mutex
}

func newMockOutbox() *mockOutbox {
	return &mockOutbox{envs: make(map[uuid.UUID]*envelope.Envelope)}
}

func (m *mockOutbox) Insert(env *envelope.Envelope) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.envs[env.ID]; !exists {
		m.envs[env.ID] = env
	}
	return nil
}

func (m *mockOutbox) Remove(id uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.envs, id)
	return nil
}

func (m *mockOutbox) Pending(dest envelope.Address) ([]*envelope.Envelope, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var envs []*envelope.Envelope
	for _, env := range m.envs {
		if env.Destination == dest {
			envs = append(envs, env)
		}
	}
	return envs, nil
}

// prebuiltAgent is both a Sender and a SendingAgent, mocking a pre-built
// agent stub handed to CreateSendingAgent.
type prebuiltAgent struct {
	dest  envelope.Address
	reply envelope.Address
}

func (m *prebuiltAgent) Destination() envelope.Address { return m.dest }

func (m *prebuiltAgent) ReplyAddress() envelope.Address { return m.reply }

func (m *prebuiltAgent) SetReplyAddress(addr envelope.Address) { m.reply = addr }

func (m *prebuiltAgent) Send(_ *envelope.Envelope) error { return nil }

func (m *prebuiltAgent) Close() error { return nil }
