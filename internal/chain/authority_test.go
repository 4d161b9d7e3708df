// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCAAuthorityAcceptsCAWithUnlimitedPathLen(t *testing.T) {
	cert := newTestHandle(t, "ca-unlimited")

	chainLen, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, nil)
	require.NoError(t, err)
	require.Equal(t, unlimitedChainLen, chainLen)
}

func TestCheckCAAuthorityAcceptsCAWithExplicitPathLen(t *testing.T) {
	cert := newTestHandle(t, "ca-pathlen")
	cert.Cert.MaxPathLen = 2
	cert.Cert.MaxPathLenZero = false

	chainLen, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, chainLen)
}

func TestCheckCAAuthorityAcceptsCAWithZeroPathLen(t *testing.T) {
	cert := newTestHandle(t, "ca-zero-pathlen")
	cert.Cert.MaxPathLen = 0
	cert.Cert.MaxPathLenZero = true

	chainLen, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, chainLen)
}

func TestCheckCAAuthorityRejectsNonCAWithoutRegTPRescue(t *testing.T) {
	cert := newTestHandle(t, "not-a-ca")
	cert.Cert.IsCA = false

	_, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, nil)
	require.ErrorIs(t, err, ErrBadCACert)
}

// fakeQualifiedList reports country for every certificate handed to it,
// regardless of identity, matching the single-root RegTP rescue scenario
// these tests exercise.
type fakeQualifiedList struct {
	country string
	err     error
}

func (q fakeQualifiedList) IsInQualifiedList(ctx context.Context, cert *Handle) (string, error) {
	return q.country, q.err
}

func TestCheckCAAuthorityRescuesRegTPSelfSignedRoot(t *testing.T) {
	cert := newTestHandle(t, "regtp-root")
	cert.Cert.IsCA = false

	chainLen, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, fakeQualifiedList{country: regTPCountry})
	require.NoError(t, err)
	require.Equal(t, 1, chainLen)
}

func TestCheckCAAuthorityRejectsRegTPRescueForWrongCountry(t *testing.T) {
	cert := newTestHandle(t, "not-regtp-root")
	cert.Cert.IsCA = false

	_, err := checkCAAuthority(context.Background(), cert, &fakeKeyDB{}, fakeQualifiedList{country: "us"})
	require.ErrorIs(t, err, ErrBadCACert)
}
