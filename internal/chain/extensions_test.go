// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCriticalExtensionsKnownSetAccepted(t *testing.T) {
	cert := &Handle{Cert: &x509.Certificate{
		Extensions: []pkix.Extension{
			{Id: asn1.ObjectIdentifier{2, 5, 29, 15}, Critical: true},
			{Id: asn1.ObjectIdentifier{2, 5, 29, 19}, Critical: true},
			{Id: asn1.ObjectIdentifier{2, 5, 29, 32}, Critical: false},
		},
	}}

	require.NoError(t, checkCriticalExtensions(cert))
}

func TestCheckCriticalExtensionsUnknownCriticalRejected(t *testing.T) {
	cert := &Handle{Cert: &x509.Certificate{
		Extensions: []pkix.Extension{
			// Policy constraints, not in the known set.
			{Id: asn1.ObjectIdentifier{2, 5, 29, 36}, Critical: true},
		},
	}}

	err := checkCriticalExtensions(cert)
	require.ErrorIs(t, err, ErrUnsupportedCert)
}

func TestCheckCriticalExtensionsNonCriticalUnknownIgnored(t *testing.T) {
	cert := &Handle{Cert: &x509.Certificate{
		Extensions: []pkix.Extension{
			{Id: asn1.ObjectIdentifier{2, 5, 29, 30}, Critical: false},
		},
	}}

	require.NoError(t, checkCriticalExtensions(cert))
}
