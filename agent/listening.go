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

// Listening supervises one transport Listener for one listening Endpoint. It
// is started explicitly by the registry; a startup failure aborts the whole
// listener startup sequence.
type Listening struct {
	endpoint transport.Endpoint
	listener transport.Listener
	logger   *log.Entry

	stopOnce sync.Once
	stopErr  error
}

// NewListening wraps the given Listener into a Listening agent.
func NewListening(ep transport.Endpoint, listener transport.Listener, logger *log.Entry) *Listening {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return &Listening{
		endpoint: ep,
		listener: listener,
		logger:   logger.WithField("address", listener.Address().String()),
	}
}

// Address returns the resolved address of the underlying Listener.
func (la *Listening) Address() envelope.Address {
	return la.listener.Address()
}

// Endpoint returns the listening Endpoint.
func (la *Listening) Endpoint() transport.Endpoint {
	return la.endpoint
}

// Start binds the underlying Listener and may block until the setup finished.
func (la *Listening) Start() error {
	la.logger.Debug("Starting listening agent")

	return la.listener.Start()
}

// Stop halts inbound acceptance and releases the transport resources. Further
// calls are no-ops.
func (la *Listening) Stop() error {
	la.stopOnce.Do(func() {
		la.logger.Debug("Stopping listening agent")

		la.stopErr = la.listener.Close()
	})
	return la.stopErr
}
