// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package durability provides an optional on-disk overflow sink for a
// TRANSIENT_LOCAL history cache: a bbolt bucket keyed by (writer GUID,
// sequence number), CBOR-encoded cache changes as values (SPEC_FULL.md
// §9's durability supplement, grounded on the teacher's declared
// go.etcd.io/bbolt and fxamacker/cbor/v2 dependencies). It is never
// required by rtps/history.HistoryCache, which remains purely
// in-memory per spec.md §4.1. The Store is standalone: no DataWriter
// or HistoryCache writes to it, so samples evicted under
// RESOURCE_LIMITS are dropped, not stored here.
package durability

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/types"
)

var bucketChanges = []byte("changes")

// record is the CBOR-on-disk representation of a history.CacheChange.
// CacheChange itself is not cbor-tagged (it lives in a package with no
// serialization dependency), so Store translates at its boundary.
type record struct {
	Kind           uint8
	WriterGUID     [16]byte
	InstanceHandle [16]byte
	SequenceNumber int64
	TimestampSec   int32
	TimestampFrac  uint32
	Payload        []byte
	InlineQos      []byte
}

// Store is a bbolt-backed overflow sink for CacheChanges, keyed by
// (writer GUID, sequence number) so entries sort in delivery order
// within a writer.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a durability store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("durability: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChanges)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func changeKey(writer guid.GUID, sn types.SequenceNumber) []byte {
	wb := writer.Bytes()
	key := make([]byte, 16+8)
	copy(key, wb[:])
	binary.BigEndian.PutUint64(key[16:], uint64(sn))
	return key
}

// Put spills a CacheChange to disk.
func (s *Store) Put(c *history.CacheChange) error {
	rec := record{
		Kind:           uint8(c.Kind),
		WriterGUID:     c.WriterGUID.Bytes(),
		InstanceHandle: [16]byte(c.InstanceHandle),
		SequenceNumber: int64(c.SequenceNumber),
		TimestampSec:   c.Timestamp.Sec,
		TimestampFrac:  c.Timestamp.Frac,
		Payload:        c.Payload,
		InlineQos:      c.InlineQos,
	}
	buf, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("durability: encode: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChanges).Put(changeKey(c.WriterGUID, c.SequenceNumber), buf)
	})
}

// Get retrieves a previously spilled CacheChange, or (nil, false) if
// absent.
func (s *Store) Get(writer guid.GUID, sn types.SequenceNumber) (*history.CacheChange, bool, error) {
	var buf []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketChanges).Get(changeKey(writer, sn))
		if v != nil {
			buf = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if buf == nil {
		return nil, false, nil
	}
	var rec record
	if err := cbor.Unmarshal(buf, &rec); err != nil {
		return nil, false, fmt.Errorf("durability: decode: %w", err)
	}
	return &history.CacheChange{
		Kind:           history.ChangeKind(rec.Kind),
		WriterGUID:     writer,
		InstanceHandle: types.InstanceHandle(rec.InstanceHandle),
		SequenceNumber: types.SequenceNumber(rec.SequenceNumber),
		Timestamp:      types.Timestamp{Sec: rec.TimestampSec, Frac: rec.TimestampFrac},
		Payload:        rec.Payload,
		InlineQos:      rec.InlineQos,
	}, true, nil
}

// DeleteBefore removes every spilled change for writer with sequence
// number <= upTo, once the live cache no longer needs them (e.g. after
// they are acknowledged by every matched reader).
func (s *Store) DeleteBefore(writer guid.GUID, upTo types.SequenceNumber) error {
	prefix := writer.Bytes()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketChanges)
		c := b.Cursor()
		for k, _ := c.Seek(prefix[:]); k != nil && len(k) >= 16 && string(k[:16]) == string(prefix[:]); k, _ = c.Next() {
			sn := types.SequenceNumber(binary.BigEndian.Uint64(k[16:]))
			if sn <= upTo {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
