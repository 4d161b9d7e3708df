// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

// Package keydb implements the key-database collaborator described by the
// chain-validation engine's data model: a cursor over a main certificate
// store and a second, "just fetched" ephemeral store, backed by a bbolt
// file so resolved issuer certificates and per-certificate flags survive
// across invocations.
package keydb

import (
	"bytes"
	"crypto/x509"
	"fmt"
	"math/big"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/smimechain/smimechain/internal/chain"
)

var (
	bucketMain     = []byte("certificates")
	bucketEphemeral = []byte("ephemeral")
	bucketFlags    = []byte("flags")
)

// DB is a bbolt-backed implementation of chain.KeyDB.
type DB struct {
	bolt *bbolt.DB

	mu        sync.Mutex
	ephemeral bool
	cursor    []*chain.Handle
	pos       int
}

// Open opens (creating if necessary) the bbolt file at path and prepares
// its buckets.
func Open(path string) (*DB, error) {
	bdb, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening key database %q: %w", path, err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMain, bucketEphemeral, bucketFlags} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("initializing key database buckets: %w", err)
	}

	return &DB{bolt: bdb}, nil
}

// Close releases the underlying bbolt file handle.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// Reset clears cursor position without affecting store contents.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cursor = nil
	db.pos = 0
}

// SearchIssuerSerial positions the cursor on certificates whose issuer DN
// and serial number match.
func (db *DB) SearchIssuerSerial(issuerDN string, serial *big.Int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cursor = db.scan(func(cert *x509.Certificate) bool {
		return cert.Issuer.String() == issuerDN && cert.SerialNumber.Cmp(serial) == 0
	})
	db.pos = 0
}

// SearchSubject positions the cursor on certificates whose subject DN
// matches.
func (db *DB) SearchSubject(subjectDN string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cursor = db.scan(func(cert *x509.Certificate) bool {
		return cert.Subject.String() == subjectDN
	})
	db.pos = 0
}

// Next returns the next certificate under the current search, or nil if
// the search is exhausted.
func (db *DB) Next() (*chain.Handle, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.pos >= len(db.cursor) {
		return nil, nil
	}
	cert := db.cursor[db.pos]
	db.pos++
	return cert, nil
}

// EnterEphemeral makes the ephemeral store visible to subsequent searches
// until the returned func is called, per the "enter/leave" scoped pattern
// recommended over a save-restore integer.
func (db *DB) EnterEphemeral() func() {
	db.mu.Lock()
	prior := db.ephemeral
	db.ephemeral = true
	db.mu.Unlock()

	return func() {
		db.mu.Lock()
		db.ephemeral = prior
		db.mu.Unlock()
	}
}

// StoreCert persists cert into the main store, or the ephemeral store if
// ephemeral is true.
func (db *DB) StoreCert(cert *chain.Handle, ephemeral bool) error {
	bucket := bucketMain
	if ephemeral {
		bucket = bucketEphemeral
	}
	key := fingerprintKey(cert)
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, cert.Cert.Raw)
	})
}

// SetCertFlags sets bits in the named flag slot for cert, best-effort.
func (db *DB) SetCertFlags(cert *chain.Handle, slot string, mask, value uint32) error {
	key := append(fingerprintKey(cert), []byte(":"+slot)...)
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketFlags)
		var current uint32
		if raw := bucket.Get(key); len(raw) == 4 {
			current = decodeUint32(raw)
		}
		current = (current &^ mask) | (value & mask)
		return bucket.Put(key, encodeUint32(current))
	})
}

// scan returns every certificate matching pred from the main store, plus
// the ephemeral store if currently visible.
func (db *DB) scan(pred func(*x509.Certificate) bool) []*chain.Handle {
	var results []*chain.Handle

	_ = db.bolt.View(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketMain}
		if db.ephemeral {
			buckets = append(buckets, bucketEphemeral)
		}
		for _, name := range buckets {
			c := tx.Bucket(name).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				cert, err := x509.ParseCertificate(v)
				if err != nil {
					continue
				}
				if pred(cert) {
					results = append(results, chain.NewHandle(cert))
				}
			}
		}
		return nil
	})

	return results
}

func fingerprintKey(cert *chain.Handle) []byte {
	fp := cert.Fingerprint()
	return bytes.Clone(fp[:])
}

func encodeUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func decodeUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
