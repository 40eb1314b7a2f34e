// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package outbox implements the durable outbox store consumed by durable
// sending agents, backed by a badgerhold database.
package outbox

import (
	"errors"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold"

	"github.com/courier-mq/courier-go/envelope"
)

// Store is a durable outbox holding Envelopes until their delivery was
// acknowledged. It satisfies the agent package's Outbox interface.
type Store struct {
	bh *badgerhold.Store

	dir string
}

// NewStore opens the outbox database below the given directory, creating it
// if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir

	bh, err := badgerhold.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{bh: bh, dir: dir}, nil
}

// Close the underlying database.
func (s *Store) Close() error {
	return s.bh.Close()
}

// Insert stores an Envelope. Inserting an already known ID changes nothing.
func (s *Store) Insert(env *envelope.Envelope) error {
	item := NewItem(env)

	if err := s.bh.Insert(item.ID, item); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			log.WithField("envelope", env.ID).Debug("Envelope ID is known, ignoring insert")
			return nil
		}
		return err
	}

	return nil
}

// Remove deletes the Envelope with this ID. Removing an unknown ID changes
// nothing.
func (s *Store) Remove(id uuid.UUID) error {
	err := s.bh.Delete(id.String(), Item{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	return err
}

// Pending returns every stored Envelope addressed to this destination.
func (s *Store) Pending(dest envelope.Address) ([]*envelope.Envelope, error) {
	var items []Item
	if err := s.bh.Find(&items, badgerhold.Where("Destination").Eq(dest.String())); err != nil {
		return nil, err
	}

	envs := make([]*envelope.Envelope, 0, len(items))
	for _, item := range items {
		env, err := item.Envelope()
		if err != nil {
			log.WithFields(log.Fields{
				"item":  item.ID,
				"error": err,
			}).Warn("Stored envelope cannot be restored, skipping it")
			continue
		}
		envs = append(envs, env)
	}

	return envs, nil
}
