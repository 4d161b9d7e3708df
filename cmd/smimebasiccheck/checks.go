// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/smimechain/smimechain/internal/chain"
	"github.com/smimechain/smimechain/internal/config"
	"github.com/smimechain/smimechain/internal/trustagent"
)

// runBasicCheck performs the single-hop signature check on leaf and
// prints the outcome.
func runBasicCheck(ctx context.Context, leaf *chain.Handle, db chain.KeyDB) {
	if err := chain.BasicCheck(ctx, leaf, db); err != nil {
		fmt.Printf("%s Basic check failed for %q: %v\n", prefixCritical, leaf.SubjectDN(), err)
		os.Exit(1)
	}

	fmt.Printf("%s Basic check passed for %q\n", prefixOK, leaf.SubjectDN())
}

// runFullWalk performs the full chain walk on leaf, prompting
// interactively to trust an unrecognized root when cfg.Interactive is set,
// and prints the outcome.
func runFullWalk(ctx context.Context, leaf *chain.Handle, db chain.KeyDB, cfg *config.Config, log zerolog.Logger) {
	var agent chain.TrustAgent
	if cfg.Interactive {
		agent = trustagent.NewInteractive(log)
	} else {
		agent = trustagent.NonInteractive{}
	}

	opts := chain.WalkOptions{
		DB:         db,
		TrustAgent: agent,

		Revocation:        revocationResponder(cfg.RevocationURL),
		QualifiedList:     qualifiedList(cfg.QualifiedListURL),
		ExternalDirectory: externalDirectory(cfg.ExternalDirectoryURL),

		SkipRevocation:        cfg.SkipRevocation,
		NoChainValidation:     cfg.NoChainValidation,
		NoPolicyCheck:         cfg.NoPolicyCheck,
		NoCRLCheck:            cfg.NoCRLCheck,
		NoTrustedCertCRLCheck: cfg.NoTrustedCertCRLCheck,
		IgnoreExpiration:      cfg.IgnoreExpiration,
		AutoIssuerKeyRetrieve: cfg.AutoIssuerKeyRetrieve,
		UseOCSP:               cfg.UseOCSP,
		PolicyFile:            cfg.PolicyFile,

		Status: func(status, key, value string) {
			log.Warn().Str("status", status).Str("key", key).Str("value", value).Msg("chain walk status emission")
		},

		Log: log,
	}

	result := chain.Walk(ctx, leaf, opts)

	switch {
	case result.Verdict == nil:
		fmt.Printf("%s Chain validated for %q\n", prefixOK, leaf.SubjectDN())

	case isWarningVerdict(result.Verdict):
		fmt.Printf("%s Chain validated with warnings for %q: %v\n", prefixWarning, leaf.SubjectDN(), result.Verdict)

	default:
		fmt.Printf("%s Chain validation failed for %q: %v\n", prefixCritical, leaf.SubjectDN(), result.Verdict)
		os.Exit(1)
	}
}

// revocationResponder builds the default HTTP-backed revocation responder
// for endpoint, or returns nil if endpoint is empty so the revocation gate
// is skipped rather than dialing an unconfigured URL.
func revocationResponder(endpoint string) chain.RevocationResponder {
	if endpoint == "" {
		return nil
	}
	return chain.HTTPRevocationResponder{Endpoint: endpoint}
}

// qualifiedList builds the default HTTP-backed qualified-signature/RegTP
// classifier collaborator for endpoint, or returns nil if endpoint is empty.
func qualifiedList(endpoint string) chain.QualifiedList {
	if endpoint == "" {
		return nil
	}
	return chain.HTTPQualifiedList{Endpoint: endpoint}
}

// externalDirectory builds the default HTTP-backed external-directory
// collaborator for endpoint, or returns nil if endpoint is empty.
func externalDirectory(endpoint string) chain.ExternalDirectory {
	if endpoint == "" {
		return nil
	}
	return chain.HTTPExternalDirectory{Endpoint: endpoint}
}

// isWarningVerdict reports whether verdict is one of the soft verdicts that
// warrant a warning rather than a hard failure when printed.
func isWarningVerdict(verdict error) bool {
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
