// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/courier-mq/courier-go/envelope"
)

// Item is the stored form of an Envelope, keyed by its ID and indexed by its
// destination for the per-agent pending queries.
type Item struct {
	ID string `badgerhold:"key"`

	Destination string `badgerholdIndex:"Destination"`

	ReplyTo     string
	ContentType string
	Headers     map[string]string
	Body        []byte
	SentAt      time.Time
	Attempts    int

	StoredAt time.Time
}

// NewItem creates the stored form of this Envelope.
func NewItem(env *envelope.Envelope) Item {
	item := Item{
		ID:          env.ID.String(),
		Destination: env.Destination.String(),
		ContentType: env.ContentType,
		Headers:     env.Headers,
		Body:        env.Body,
		SentAt:      env.SentAt,
		Attempts:    env.Attempts,
		StoredAt:    time.Now(),
	}

	if !env.ReplyTo.IsZero() {
		item.ReplyTo = env.ReplyTo.String()
	}

	return item
}

// Envelope restores the Envelope from its stored form.
func (item Item) Envelope() (*envelope.Envelope, error) {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return nil, err
	}

	dest, err := envelope.ParseAddress(item.Destination)
	if err != nil {
		return nil, err
	}

	env := &envelope.Envelope{
		ID:          id,
		Destination: dest,
		ContentType: item.ContentType,
		Headers:     item.Headers,
		Body:        item.Body,
		SentAt:      item.SentAt,
		Attempts:    item.Attempts,
	}

	if item.ReplyTo != "" {
		if env.ReplyTo, err = envelope.ParseAddress(item.ReplyTo); err != nil {
			return nil, err
		}
	}

	return env, nil
}
