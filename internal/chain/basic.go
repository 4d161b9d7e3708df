// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "context"

// BasicCheck is a single-hop sibling of Walk for callers that trust the
// surrounding chain is already valid. If subject is self-issued its
// self-signature is verified; otherwise the issuer resolver locates its
// issuer in the key database (the external-directory strategies are not
// run, as BasicCheck is given no ExternalDirectory) and the subject's
// signature is verified against the resolved issuer's key. No validity,
// policy, CA, or revocation checks are performed.
func BasicCheck(ctx context.Context, subject *Handle, db KeyDB) error {
	if subject.IsRoot() {
		if err := subject.Cert.CheckSignatureFrom(subject.Cert); err != nil {
			return ErrBadCert
		}
		return nil
	}

	issuer, err := findUp(ctx, subject, db, false)
	if err != nil {
		return err
	}
	if issuer == nil {
		return ErrMissingCert
	}

	if err := subject.Cert.CheckSignatureFrom(issuer.Cert); err != nil {
		return ErrBadSignature
	}
	return nil
}
