// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHandle(t *testing.T, cn string) *Handle {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,

		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return NewHandle(cert)
}

func TestSessionWasAskedMarkAskedIdempotent(t *testing.T) {
	s := NewSession()
	cert := newTestHandle(t, "root-a")

	require.False(t, s.WasAsked(cert))

	s.MarkAsked(cert)
	require.True(t, s.WasAsked(cert))

	// Idempotent: marking again changes nothing observable.
	s.MarkAsked(cert)
	require.True(t, s.WasAsked(cert))

	other := newTestHandle(t, "root-b")
	require.False(t, s.WasAsked(other))
}

func TestSessionNoMoreQuestionsLatchIsOneWay(t *testing.T) {
	s := NewSession()
	require.False(t, s.NoMoreQuestions())

	s.LatchNoMoreQuestions()
	require.True(t, s.NoMoreQuestions())

	// One-way: never cleared.
	s.LatchNoMoreQuestions()
	require.True(t, s.NoMoreQuestions())
}
