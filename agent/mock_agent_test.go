// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courier-mq/courier-go/envelope"
	"github.com/courier-mq/courier-go/transport"
)

// mockEndpoint is an Endpoint where the raw mechanisms are irrelevant.
type mockEndpoint struct {
	transport.BaseEndpoint
}

func newMockEndpoint(addr string, mode transport.Mode) *mockEndpoint {
	ep := &mockEndpoint{
		BaseEndpoint: transport.NewBaseEndpoint(envelope.MustParseAddress(addr), mode, false),
	}
	_ = ep.Compile(transport.DefaultOptions())
	return ep
}

func (ep *mockEndpoint) NewSender(_ transport.Runtime) (transport.Sender, error) {
	return nil, fmt.Errorf("mockEndpoint builds no senders")
}

func (ep *mockEndpoint) NewListener(_ transport.Runtime) (transport.Listener, error) {
	return nil, fmt.Errorf("mockEndpoint builds no listeners")
}

// mockSender is a Sender where all fields are directly editable.
type mockSender struct {
	dest envelope.Address

	// sendFail indicates if sending should fail.
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

func (m *mockSender) setSendFail(fail bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sendFail = fail
}

func (m *mockSender) sentCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.sent)
}

// waitForSent polls until the sender transmitted want envelopes or the
// timeout expired.
func (m *mockSender) waitForSent(want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.sentCount() >= want {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return m.sentCount() >= want
}

// mockOutbox is an in-memory Outbox.
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

func (m *mockOutbox) size() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.envs)
}

// mockListener is a Listener where all fields are directly editable.
type mockListener struct {
	addr envelope.Address

	startFail bool

	started int
	closed  int

	mutex sync.Mutex
}

func newMockListener(addr envelope.Address) *mockListener {
	return &mockListener{addr: addr}
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
