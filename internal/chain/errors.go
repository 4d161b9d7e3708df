// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "errors"

// Fatal verdicts abort chain validation immediately; none of them
// accumulate, and the first one encountered is returned to the caller.
var (
	ErrBadCert          = errors.New("certcert: malformed or unusable certificate")
	ErrBadCertChain     = errors.New("certcert: certificate chain is invalid")
	ErrBadCACert        = errors.New("certcert: issuer certificate is not a valid CA")
	ErrUnsupportedCert  = errors.New("certcert: certificate carries an unsupported critical extension")
	ErrCertTooYoung     = errors.New("certcert: certificate not yet valid")
	ErrMissingCert      = errors.New("certcert: issuer certificate could not be located")
	ErrConfiguration    = errors.New("certcert: invalid policy configuration")
	ErrLineTooLong      = errors.New("certcert: policy file line exceeds maximum length")
	ErrIncompleteLine   = errors.New("certcert: policy file ends with an unterminated line")

	// Recoverable conditions: handled where they arise (another issuer
	// with the same DN is tried, a root may be promoted to trusted) and
	// returned as the verdict only when that handling does not succeed.
	ErrBadSignature     = errors.New("certcert: signature verification failed")
	ErrNotTrusted       = errors.New("certcert: root certificate is not trusted")
	ErrNotFound         = errors.New("certcert: not found")
	ErrNotSupported     = errors.New("certcert: operation not supported by collaborator")
	ErrCanceled         = errors.New("certcert: operation canceled by user")
)

// isErr is a small errors.Is wrapper kept local to this package to avoid an
// "errors" import in every file that only needs this one check.
func isErr(err, target error) bool {
	return errors.Is(err, target)
}

// Soft verdicts accumulate across a chain walk and are resolved to a single
// terminal code, in priority order, once the walk otherwise succeeds.
var (
	ErrCertRevoked    = errors.New("certcert: certificate has been revoked")
	ErrCertExpired    = errors.New("certcert: certificate has expired")
	ErrNoCRLKnown     = errors.New("certcert: no applicable CRL is known")
	ErrCRLTooOld      = errors.New("certcert: known CRL is too old to trust")
	ErrNoPolicyMatch  = errors.New("certcert: no acceptable issuer policy matched")
)

// softFlags accumulates the soft verdicts observed while walking a chain.
// Terminal() resolves them to a single code once no fatal error has
// occurred, applying the priority order mandated for the walker: revoked >
// expired > no-crl > crl-too-old > no-policy-match > success.
type softFlags struct {
	anyRevoked       bool
	anyExpired       bool
	anyNoCRL         bool
	anyCRLTooOld     bool
	anyNoPolicyMatch bool
}

// Terminal resolves the accumulated soft flags to a single verdict, or nil
// if every node passed cleanly.
func (s softFlags) Terminal() error {
	switch {
	case s.anyRevoked:
		return ErrCertRevoked
	case s.anyExpired:
		return ErrCertExpired
	case s.anyNoCRL:
		return ErrNoCRLKnown
	case s.anyCRLTooOld:
		return ErrCRLTooOld
	case s.anyNoPolicyMatch:
		return ErrNoPolicyMatch
	default:
		return nil
	}
}
