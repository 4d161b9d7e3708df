// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"context"

	"github.com/rs/zerolog"
)

// resolveQualified classifies the leaf as carrying a qualified signature.
// It is consulted once per chain-validation call, after the root is
// reached, against the leaf certificate. The result is cached under the
// leaf's is_qualified slot so a second invocation never re-consults the
// collaborator.
func resolveQualified(ctx context.Context, leaf *Handle, ql QualifiedList, log zerolog.Logger) {
	if _, known := leaf.IsQualified(); known {
		return
	}

	if ql == nil {
		return
	}

	_, err := ql.IsInQualifiedList(ctx, leaf)
	switch {
	case err == nil:
		leaf.SetIsQualified(true)
	case isErr(err, ErrNotFound):
		leaf.SetIsQualified(false)
	default:
		// Failure to consult the qualified-list is logged but does not
		// fail the chain.
		log.Warn().Err(err).Msg("qualified-list lookup failed")
	}
}
