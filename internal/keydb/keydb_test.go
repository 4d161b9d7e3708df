// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package keydb_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smimechain/smimechain/internal/chain"
	"github.com/smimechain/smimechain/internal/keydb"
)

func selfSignedCert(t *testing.T, cn string) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,
		KeyUsage:     x509.KeyUsageCertSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestStoreAndSearchSubject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.keydb")
	db, err := keydb.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	cert := selfSignedCert(t, "Test Root")
	handle := chain.NewHandle(cert)

	require.NoError(t, db.StoreCert(handle, false))

	db.SearchSubject(cert.Subject.String())
	found, err := db.Next()
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, cert.Subject.String(), found.SubjectDN())

	none, err := db.Next()
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestEphemeralVisibilityScoped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.keydb")
	db, err := keydb.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	cert := selfSignedCert(t, "Ephemeral Root")
	handle := chain.NewHandle(cert)
	require.NoError(t, db.StoreCert(handle, true))

	db.SearchSubject(cert.Subject.String())
	none, err := db.Next()
	require.NoError(t, err)
	require.Nil(t, none, "ephemeral store must not be visible by default")

	leave := db.EnterEphemeral()
	db.SearchSubject(cert.Subject.String())
	found, err := db.Next()
	require.NoError(t, err)
	require.NotNil(t, found, "ephemeral store must be visible while entered")
	leave()

	db.SearchSubject(cert.Subject.String())
	none, err = db.Next()
	require.NoError(t, err)
	require.Nil(t, none, "ephemeral store must not leak past Leave")
}

func TestSetCertFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.keydb")
	db, err := keydb.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	cert := selfSignedCert(t, "Flagged Cert")
	handle := chain.NewHandle(cert)
	require.NoError(t, db.StoreCert(handle, false))

	err = db.SetCertFlags(handle, chain.CertFlagValidity, chain.FlagValidityRevoked, chain.FlagValidityRevoked)
	require.NoError(t, err)
}
