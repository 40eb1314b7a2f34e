// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"errors"
	"fmt"

	"github.com/courier-mq/courier-go/envelope"
)

// ErrNoDestination is the configuration error for a missing destination
// address. It is raised synchronously and never retried.
var ErrNoDestination = errors.New("no destination address was given")

// UnknownSchemeError is the configuration error for an address whose scheme
// has no registered Transport.
type UnknownSchemeError struct {
	Scheme string
}

func (err *UnknownSchemeError) Error() string {
	return fmt.Sprintf("no transport is registered for scheme %q", err.Scheme)
}

// UnknownModeError is the configuration error for an unrecognized delivery
// mode.
type UnknownModeError struct {
	Mode Mode
}

func (err *UnknownModeError) Error() string {
	return fmt.Sprintf("delivery mode %v is not recognized", err.Mode)
}

// ConstructionError wraps any failure while compiling, building or wiring an
// Endpoint's agents, carrying the destination next to the original cause. The
// cause stays reachable through errors.Is and errors.As.
type ConstructionError struct {
	Destination envelope.Address
	Err         error
}

func (err *ConstructionError) Error() string {
	return fmt.Sprintf("building endpoint %v failed: %v", err.Destination, err.Err)
}

func (err *ConstructionError) Unwrap() error {
	return err.Err
}
