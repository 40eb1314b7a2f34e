// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package envelope

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is the unit of transmission within the runtime. The Body is an
// opaque byte string; encoding and decoding it is the business of the
// applications on both ends, not of this package.
type Envelope struct {
	// ID uniquely identifies this Envelope, e.g., for outbox bookkeeping.
	ID uuid.UUID

	// Destination is the Address this Envelope should be delivered to.
	Destination Address

	// ReplyTo, if not zero, is the Address responses should be sent to.
	ReplyTo Address

	// ContentType describes the Body for the receiving application.
	ContentType string

	// Headers carries application-defined metadata.
	Headers map[string]string

	// Body is the serialized message payload.
	Body []byte

	// SentAt is the creation time of this Envelope.
	SentAt time.Time

	// Attempts counts how often a sender tried to deliver this Envelope.
	Attempts int
}

// New creates an Envelope addressed to dest, wrapping the given payload.
func New(dest Address, body []byte) *Envelope {
	return &Envelope{
		ID:          uuid.New(),
		Destination: dest,
		Headers:     make(map[string]string),
		Body:        body,
		SentAt:      time.Now(),
	}
}
