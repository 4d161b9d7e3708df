// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package main

import (
	"errors"

	"github.com/atc0005/go-nagios"

	"github.com/smimechain/smimechain/internal/chain"
)

// severityExitCode maps a chain-walk verdict to a Nagios exit code.
// Revocation and an untrusted/invalid chain are CRITICAL; expiration and
// revocation-status-unknown outcomes are WARNING, consistent with how a
// stale-but-not-yet-dangerous state is normally reported.
func severityExitCode(verdict error) int {
	switch {
	case verdict == nil:
		return nagios.StateOKExitCode

	case isSoftWarning(verdict):
		return nagios.StateWARNINGExitCode

	default:
		return nagios.StateCRITICALExitCode
	}
}

// severityLabel returns the matching human-readable label for
// severityExitCode's classification.
func severityLabel(verdict error) string {
	switch {
	case verdict == nil:
		return nagios.StateOKLabel

	case isSoftWarning(verdict):
		return nagios.StateWARNINGLabel

	default:
		return nagios.StateCRITICALLabel
	}
}

// isSoftWarning reports whether verdict is one of the soft verdicts that
// warrant a WARNING rather than a CRITICAL state.
func isSoftWarning(verdict error) bool {
	switch {
	case errors.Is(verdict, chain.ErrCertExpired),
		errors.Is(verdict, chain.ErrNoCRLKnown),
		errors.Is(verdict, chain.ErrCRLTooOld),
		errors.Is(verdict, chain.ErrNoPolicyMatch):
		return true
	default:
		return false
	}
}
