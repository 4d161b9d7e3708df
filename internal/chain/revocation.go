// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "context"

// checkRevocation is the revocation gate. It invokes the revocation responder on
// (subject, issuer) and translates its three recoverable sub-failures into
// soft flags on flags. Any other error is immediately fatal for the chain.
func checkRevocation(ctx context.Context, subject, issuer *Handle, responder RevocationResponder, useOCSP bool, db KeyDB, flags *softFlags) error {
	if responder == nil {
		return nil
	}

	err := responder.IsValid(ctx, subject, issuer, useOCSP)
	switch {
	case err == nil:
		return nil

	case isErr(err, ErrCertRevoked):
		flags.anyRevoked = true
		if db != nil {
			// Best-effort: a failure to persist the flag does not affect
			// the verdict.
			_ = db.SetCertFlags(subject, CertFlagValidity, FlagValidityRevoked, FlagValidityRevoked)
		}
		return nil

	case isErr(err, ErrNoCRLKnown):
		flags.anyNoCRL = true
		return nil

	case isErr(err, ErrCRLTooOld):
		flags.anyCRLTooOld = true
		return nil

	default:
		return err
	}
}

// revocationEnabled reports whether the revocation gate should run at all
// for this call, per the skip-revocation flag and the global CRL/OCSP
// switches.
func revocationEnabled(skipRevocation, noCRLCheck, useOCSP bool) bool {
	if skipRevocation {
		return false
	}
	if noCRLCheck && !useOCSP {
		return false
	}
	return true
}
