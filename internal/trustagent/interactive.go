// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

// Package trustagent implements the chain-validation engine's trust-agent
// collaborator: the component consulted to decide whether a self-issued
// root certificate is a trust anchor, and to prompt a human to promote one
// that is not.
package trustagent

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smimechain/smimechain/internal/chain"
)

// Interactive is a survey-backed TrustAgent suitable for an
// Inspecter-shaped caller. It tracks a process-lifetime set of roots the
// operator has explicitly promoted via MarkTrusted, and tags each prompt
// with a correlation ID to make troubleshooting multi-root sessions
// easier in the log stream.
type Interactive struct {
	Log zerolog.Logger

	trusted map[[20]byte]chain.RootCAFlags
}

// NewInteractive returns a ready-to-use Interactive trust agent.
func NewInteractive(log zerolog.Logger) *Interactive {
	return &Interactive{Log: log, trusted: make(map[[20]byte]chain.RootCAFlags)}
}

// IsTrusted reports whether cert was previously promoted to a trust
// anchor by this agent during the current process lifetime.
func (a *Interactive) IsTrusted(ctx context.Context, cert *chain.Handle) (bool, chain.RootCAFlags, error) {
	if a.trusted == nil {
		a.trusted = make(map[[20]byte]chain.RootCAFlags)
	}
	flags, ok := a.trusted[cert.Fingerprint()]
	return ok, flags, nil
}

// MarkTrusted interactively prompts the operator to decide whether cert
// should be promoted to a trust anchor for the rest of the process
// lifetime.
func (a *Interactive) MarkTrusted(ctx context.Context, cert *chain.Handle) error {
	correlationID := uuid.New().String()

	log := a.Log.With().
		Str("correlation_id", correlationID).
		Str("subject_dn", cert.SubjectDN()).
		Logger()

	log.Info().Msg("prompting operator to trust root certificate")

	confirm := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Trust root certificate %q (fingerprint %x)?", cert.SubjectDN(), cert.Fingerprint()),
	}

	if err := survey.AskOne(prompt, &confirm); err != nil {
		if err == terminal.InterruptErr {
			return chain.ErrCanceled
		}
		return fmt.Errorf("prompting operator: %w", err)
	}

	if !confirm {
		return chain.ErrCanceled
	}

	a.trusted[cert.Fingerprint()] = chain.RootCAFlags{}
	log.Info().Msg("operator promoted root certificate to trust anchor")

	return nil
}
