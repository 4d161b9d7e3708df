// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeKeyDB is a minimal in-memory chain.KeyDB: subject-DN search only,
// which serves findUp's keyIdentifier strategy (the one the generated test
// certificates, all carrying an AKI keyIdentifier, resolve through) and its
// subject-DN strategy. Issuer+serial searches never find anything.
type fakeKeyDB struct {
	certs     []*Handle
	ephemeral bool
	cursor    []*Handle
	pos       int
}

func (db *fakeKeyDB) Reset() { db.cursor = nil; db.pos = 0 }

func (db *fakeKeyDB) SearchIssuerSerial(issuerDN string, serial *big.Int) {
	db.cursor = nil
	db.pos = 0
}

func (db *fakeKeyDB) SearchSubject(subjectDN string) {
	db.cursor = nil
	for _, c := range db.certs {
		if c.SubjectDN() == subjectDN {
			db.cursor = append(db.cursor, c)
		}
	}
	db.pos = 0
}

func (db *fakeKeyDB) Next() (*Handle, error) {
	if db.pos >= len(db.cursor) {
		return nil, nil
	}
	c := db.cursor[db.pos]
	db.pos++
	return c, nil
}

func (db *fakeKeyDB) EnterEphemeral() func() {
	prior := db.ephemeral
	db.ephemeral = true
	return func() { db.ephemeral = prior }
}

func (db *fakeKeyDB) StoreCert(cert *Handle, ephemeral bool) error {
	db.certs = append(db.certs, cert)
	return nil
}

func (db *fakeKeyDB) SetCertFlags(cert *Handle, slot string, mask, value uint32) error {
	return nil
}

// fakeTrustAgent reports every certificate whose fingerprint is in
// trusted as an already-trusted root, and declines every MarkTrusted call.
type fakeTrustAgent struct {
	trusted map[[20]byte]bool
}

func (a fakeTrustAgent) IsTrusted(ctx context.Context, cert *Handle) (bool, RootCAFlags, error) {
	return a.trusted[cert.Fingerprint()], RootCAFlags{}, nil
}

func (a fakeTrustAgent) MarkTrusted(ctx context.Context, cert *Handle) error {
	return ErrNotSupported
}

// issueCert creates a certificate signed by issuerKey/issuerCert (or
// self-signed when issuerCert is nil), valid from notBefore to notAfter.
func issueCert(t *testing.T, cn string, isCA bool, issuerCert *x509.Certificate, issuerKey *ecdsa.PrivateKey, notBefore, notAfter time.Time) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		IsCA:         isCA,
		KeyUsage:     x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,

		BasicConstraintsValid: true,
	}

	parent := tmpl
	signerKey := key
	if issuerCert != nil {
		parent = issuerCert
		signerKey = issuerKey
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, signerKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return cert, key
}

// buildTestChain returns leaf -> intermediate -> root, each signed by the
// one above it, all within a valid window unless overridden by the caller.
func buildTestChain(t *testing.T) (leaf, intermediate, root *x509.Certificate) {
	t.Helper()

	now := time.Now()
	root, rootKey := issueCert(t, "root", true, nil, nil, now.Add(-time.Hour), now.Add(time.Hour))
	intermediate, intermediateKey := issueCert(t, "intermediate", true, root, rootKey, now.Add(-time.Hour), now.Add(time.Hour))
	leaf, _ = issueCert(t, "leaf", false, intermediate, intermediateKey, now.Add(-time.Hour), now.Add(time.Hour))

	return leaf, intermediate, root
}

func TestWalkSucceedsAgainstTrustedRoot(t *testing.T) {
	leafCert, intermediateCert, rootCert := buildTestChain(t)

	db := &fakeKeyDB{}
	require.NoError(t, db.StoreCert(NewHandle(intermediateCert), false))
	require.NoError(t, db.StoreCert(NewHandle(rootCert), false))

	rootHandle := NewHandle(rootCert)
	agent := fakeTrustAgent{trusted: map[[20]byte]bool{rootHandle.Fingerprint(): true}}

	result := Walk(context.Background(), NewHandle(leafCert), WalkOptions{
		DB:         db,
		TrustAgent: agent,
		Log:        zerolog.Nop(),
	})

	require.NoError(t, result.Verdict)
	require.Equal(t, intermediateCert.NotAfter, result.ExpTime)
}

func TestWalkFailsAgainstUntrustedRoot(t *testing.T) {
	leafCert, intermediateCert, rootCert := buildTestChain(t)

	db := &fakeKeyDB{}
	require.NoError(t, db.StoreCert(NewHandle(intermediateCert), false))
	require.NoError(t, db.StoreCert(NewHandle(rootCert), false))

	result := Walk(context.Background(), NewHandle(leafCert), WalkOptions{
		DB:         db,
		TrustAgent: fakeTrustAgent{trusted: map[[20]byte]bool{}},
		Log:        zerolog.Nop(),
	})

	require.ErrorIs(t, result.Verdict, ErrNotTrusted)
}

func TestWalkMissingIssuerFails(t *testing.T) {
	leafCert, _, _ := buildTestChain(t)

	result := Walk(context.Background(), NewHandle(leafCert), WalkOptions{
		DB:  &fakeKeyDB{},
		Log: zerolog.Nop(),
	})

	require.ErrorIs(t, result.Verdict, ErrMissingCert)
}

func TestWalkExpiredLeafYieldsSoftExpiredVerdict(t *testing.T) {
	now := time.Now()
	root, rootKey := issueCert(t, "root", true, nil, nil, now.Add(-2*time.Hour), now.Add(time.Hour))
	intermediate, intermediateKey := issueCert(t, "intermediate", true, root, rootKey, now.Add(-2*time.Hour), now.Add(time.Hour))
	leaf, _ := issueCert(t, "leaf", false, intermediate, intermediateKey, now.Add(-2*time.Hour), now.Add(-time.Hour))

	db := &fakeKeyDB{}
	require.NoError(t, db.StoreCert(NewHandle(intermediate), false))
	require.NoError(t, db.StoreCert(NewHandle(root), false))

	rootHandle := NewHandle(root)
	agent := fakeTrustAgent{trusted: map[[20]byte]bool{rootHandle.Fingerprint(): true}}

	result := Walk(context.Background(), NewHandle(leaf), WalkOptions{
		DB:         db,
		TrustAgent: agent,
		Log:        zerolog.Nop(),
	})

	require.ErrorIs(t, result.Verdict, ErrCertExpired)
}

// TestWalkRootRevocationCheckedEvenWhenTrusted documents the
// unconditional root revocation check: a revocation responder reporting
// only the root itself revoked (every non-root edge is clean) still fails
// the walk even though the root is a trusted anchor and the self edge
// duplicates the non-root gate's shape.
func TestWalkRootRevocationCheckedEvenWhenTrusted(t *testing.T) {
	leafCert, intermediateCert, rootCert := buildTestChain(t)

	db := &fakeKeyDB{}
	require.NoError(t, db.StoreCert(NewHandle(intermediateCert), false))
	require.NoError(t, db.StoreCert(NewHandle(rootCert), false))

	rootHandle := NewHandle(rootCert)
	agent := fakeTrustAgent{trusted: map[[20]byte]bool{rootHandle.Fingerprint(): true}}

	result := Walk(context.Background(), NewHandle(leafCert), WalkOptions{
		DB:         db,
		TrustAgent: agent,
		Revocation: rootRevokedResponder{},
		Log:        zerolog.Nop(),
	})

	require.ErrorIs(t, result.Verdict, ErrCertRevoked)
}

// rootRevokedResponder reports revoked only for a root's self edge
// (subject and issuer are the same certificate), and valid otherwise.
type rootRevokedResponder struct{}

func (rootRevokedResponder) IsValid(ctx context.Context, subject, issuer *Handle, useOCSP bool) error {
	if subject.SameImage(issuer) {
		return ErrCertRevoked
	}
	return nil
}
