// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "context"

// RootCAFlags is bound when a root certificate is reached during the chain
// walk. Relax suppresses the CA-gate and pathlen checks that would
// otherwise apply to the root.
type RootCAFlags struct {
	Relax bool
}

// TrustAgent is the collaborator consulted for root-trust decisions. A
// Plugin-shaped caller wires a NonInteractive implementation; an
// Inspecter-shaped caller may wire the survey-backed Interactive one from
// internal/trustagent.
type TrustAgent interface {
	// IsTrusted reports whether the given root is already a trust anchor.
	// ok=false with a nil error means NOT_TRUSTED, a recoverable verdict
	// the walker resolves via MarkTrusted.
	IsTrusted(ctx context.Context, cert *Handle) (ok bool, flags RootCAFlags, err error)

	// MarkTrusted prompts (or otherwise decides) whether to promote an
	// untrusted root to a trust anchor. Returns ErrNotSupported or
	// ErrCanceled to latch the session's no-more-questions flag, any other
	// error to leave the root untrusted, or nil on success.
	MarkTrusted(ctx context.Context, cert *Handle) error
}

// RevocationResponder is the collaborator answering the revocation gate.
// UseOCSP selects OCSP-flavored semantics over CRL-flavored ones; the
// three sentinel errors below are recoverable and translated by the gate
// into soft flags, any other error is fatal for the chain.
type RevocationResponder interface {
	IsValid(ctx context.Context, subject, issuer *Handle, useOCSP bool) error
}

// ExternalDirectory is the collaborator consulted by the issuer resolver's
// third and fifth search strategies when auto-issuer-key-retrieve is
// enabled. Results are delivered one certificate at a time via cb.
type ExternalDirectory interface {
	Lookup(ctx context.Context, pattern string, cb func(*Handle) error) error
}

// QualifiedList is the collaborator consulted by the qualified-signature
// classifier and the RegTP classifier. country is populated with the ISO
// country code on a successful match.
type QualifiedList interface {
	IsInQualifiedList(ctx context.Context, cert *Handle) (country string, err error)
}
