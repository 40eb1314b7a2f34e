// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package envelope defines the message unit passed between endpoints and the
// Address type used to identify logical destinations.
package envelope

import (
	"fmt"
	"strings"
)

// LocalScheme is the reserved scheme for in-process queues. Endpoints of this
// scheme are push-only and never started as independent listeners.
const LocalScheme = "local"

// Address identifies one logical destination or source as a pair of a
// transport scheme and a scheme-specific name, written "scheme://name".
type Address struct {
	Scheme string
	Name   string
}

// ParseAddress creates an Address from its string form "scheme://name".
func ParseAddress(s string) (Address, error) {
	scheme, name, found := strings.Cut(s, "://")
	if !found {
		return Address{}, fmt.Errorf("address %q misses the \"://\" separator", s)
	}

	if scheme == "" {
		return Address{}, fmt.Errorf("address %q has an empty scheme", s)
	}
	if name == "" {
		return Address{}, fmt.Errorf("address %q has an empty name", s)
	}

	return Address{Scheme: scheme, Name: name}, nil
}

// MustParseAddress returns the parsed Address and panics on errors. It should
// only be used for hard-coded addresses, e.g., within tests.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// NewLocalAddress returns the Address of the in-process queue with this name.
func NewLocalAddress(name string) Address {
	return Address{Scheme: LocalScheme, Name: name}
}

// IsLocal checks if this Address names an in-process queue.
func (addr Address) IsLocal() bool {
	return addr.Scheme == LocalScheme
}

// IsZero checks if this Address is the uninitialized zero value.
func (addr Address) IsZero() bool {
	return addr.Scheme == "" && addr.Name == ""
}

func (addr Address) String() string {
	return addr.Scheme + "://" + addr.Name
}
