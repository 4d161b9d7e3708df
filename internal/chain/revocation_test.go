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

// scriptedResponder returns err from every IsValid call.
type scriptedResponder struct {
	err error
}

func (r scriptedResponder) IsValid(ctx context.Context, subject, issuer *Handle, useOCSP bool) error {
	return r.err
}

func TestCheckRevocationNilResponderIsNoop(t *testing.T) {
	subject := newTestHandle(t, "leaf")
	var flags softFlags

	err := checkRevocation(context.Background(), subject, subject, nil, false, &fakeKeyDB{}, &flags)
	require.NoError(t, err)
	require.Nil(t, flags.Terminal())
}

// flagRecordingKeyDB is a fakeKeyDB that records every SetCertFlags call.
type flagRecordingKeyDB struct {
	fakeKeyDB
	flagged []recordedFlag
}

type recordedFlag struct {
	cert        *Handle
	slot        string
	mask, value uint32
}

func (db *flagRecordingKeyDB) SetCertFlags(cert *Handle, slot string, mask, value uint32) error {
	db.flagged = append(db.flagged, recordedFlag{cert: cert, slot: slot, mask: mask, value: value})
	return nil
}

func TestCheckRevocationSetsRevokedFlagAndPersistsToDB(t *testing.T) {
	subject := newTestHandle(t, "leaf")
	issuer := newTestHandle(t, "issuer")
	db := &flagRecordingKeyDB{}
	var flags softFlags

	err := checkRevocation(context.Background(), subject, issuer, scriptedResponder{err: ErrCertRevoked}, false, db, &flags)
	require.NoError(t, err)
	require.True(t, flags.anyRevoked)
	require.ErrorIs(t, flags.Terminal(), ErrCertRevoked)
	require.Equal(t, []recordedFlag{{cert: subject, slot: CertFlagValidity, mask: FlagValidityRevoked, value: FlagValidityRevoked}}, db.flagged)
}

func TestCheckRevocationSetsNoCRLFlag(t *testing.T) {
	subject := newTestHandle(t, "leaf")
	issuer := newTestHandle(t, "issuer")
	var flags softFlags

	err := checkRevocation(context.Background(), subject, issuer, scriptedResponder{err: ErrNoCRLKnown}, false, &fakeKeyDB{}, &flags)
	require.NoError(t, err)
	require.True(t, flags.anyNoCRL)
	require.ErrorIs(t, flags.Terminal(), ErrNoCRLKnown)
}

func TestCheckRevocationSetsCRLTooOldFlag(t *testing.T) {
	subject := newTestHandle(t, "leaf")
	issuer := newTestHandle(t, "issuer")
	var flags softFlags

	err := checkRevocation(context.Background(), subject, issuer, scriptedResponder{err: ErrCRLTooOld}, false, &fakeKeyDB{}, &flags)
	require.NoError(t, err)
	require.True(t, flags.anyCRLTooOld)
	require.ErrorIs(t, flags.Terminal(), ErrCRLTooOld)
}

func TestCheckRevocationPropagatesUnrecognizedError(t *testing.T) {
	subject := newTestHandle(t, "leaf")
	issuer := newTestHandle(t, "issuer")
	var flags softFlags

	err := checkRevocation(context.Background(), subject, issuer, scriptedResponder{err: ErrBadCert}, false, &fakeKeyDB{}, &flags)
	require.ErrorIs(t, err, ErrBadCert)
	require.False(t, flags.anyRevoked)
}

func TestRevocationEnabled(t *testing.T) {
	require.False(t, revocationEnabled(true, false, false))
	require.False(t, revocationEnabled(false, true, false))
	require.True(t, revocationEnabled(false, true, true))
	require.True(t, revocationEnabled(false, false, false))
}
