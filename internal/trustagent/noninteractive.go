// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package trustagent

import (
	"context"

	"github.com/smimechain/smimechain/internal/chain"
)

// NonInteractive is the TrustAgent wired for Plugin-shaped callers, where
// a Nagios check run has no terminal to prompt against. Every root is
// reported untrusted and every MarkTrusted call is latched as
// unsupported, matching the validator's "interactive trust prompts are
// not supported in plugin mode" configuration guard.
type NonInteractive struct{}

// IsTrusted always reports untrusted with no relax flag.
func (NonInteractive) IsTrusted(ctx context.Context, cert *chain.Handle) (bool, chain.RootCAFlags, error) {
	return false, chain.RootCAFlags{}, nil
}

// MarkTrusted always declines, signaling NOT_SUPPORTED so the walker
// latches its no-more-questions flag rather than retrying every node.
func (NonInteractive) MarkTrusted(ctx context.Context, cert *chain.Handle) error {
	return chain.ErrNotSupported
}
