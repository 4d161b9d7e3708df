// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

// Command smimevalidate is a Nagios plugin that walks a presented S/MIME
// certificate chain from leaf to trust anchor, applying the full set of
// chain-validation gates (critical extensions, policy, CA authority,
// revocation, trust) before reporting a single OK, WARNING or CRITICAL
// verdict.
package main

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/atc0005/go-nagios"

	"github.com/smimechain/smimechain/internal/certs"
	"github.com/smimechain/smimechain/internal/chain"
	"github.com/smimechain/smimechain/internal/config"
	"github.com/smimechain/smimechain/internal/keydb"
	smimenet "github.com/smimechain/smimechain/internal/net"
	"github.com/smimechain/smimechain/internal/trustagent"
)

func main() {
	plugin := nagios.NewPlugin()

	plugin.SetErrorsLabel("CHAIN VALIDATION ERRORS")
	plugin.SetDetailedInfoLabel("CHAIN WALK REPORT")

	defer plugin.ReturnCheckResults()

	cfg, cfgErr := config.New(config.AppType{Plugin: true})
	switch {
	case errors.Is(cfgErr, config.ErrVersionRequested):
		fmt.Println(config.Version())
		return

	case cfgErr != nil:
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		logger := zerolog.New(consoleWriter).With().Timestamp().Caller().Logger()
		logger.Err(cfgErr).Msg("Error initializing application")

		plugin.ServiceOutput = fmt.Sprintf("%s: Error initializing application", nagios.StateUNKNOWNLabel)
		plugin.AddError(cfgErr)
		plugin.ExitStatusCode = nagios.StateUNKNOWNExitCode
		return
	}

	if cfg.EmitBranding {
		plugin.BrandingCallback = config.Branding("Notification generated by ")
	}

	log := cfg.Log

	db, dbErr := keydb.Open(cfg.KeyDBPath)
	if dbErr != nil {
		log.Error().Err(dbErr).Msg("failed to open key database")

		plugin.AddError(dbErr)
		plugin.ServiceOutput = fmt.Sprintf("%s: Unable to open key database %q", nagios.StateUNKNOWNLabel, cfg.KeyDBPath)
		plugin.ExitStatusCode = nagios.StateUNKNOWNExitCode
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing key database")
		}
	}()

	certChain, certChainSource, fetchErr := loadCertChain(cfg, log)
	if fetchErr != nil {
		log.Error().Err(fetchErr).Msg("Error obtaining certificate chain")

		plugin.AddError(fetchErr)
		plugin.ServiceOutput = fmt.Sprintf("%s: %s", nagios.StateCRITICALLabel, fetchErr.Error())
		plugin.ExitStatusCode = nagios.StateCRITICALExitCode
		return
	}

	if len(certChain) == 0 {
		noCertsErr := certs.ErrNoCertsFound
		plugin.AddError(noCertsErr)
		plugin.ServiceOutput = fmt.Sprintf("%s: 0 certificates found in %s", nagios.StateCRITICALLabel, certChainSource)
		plugin.ExitStatusCode = nagios.StateCRITICALExitCode
		log.Error().Err(noCertsErr).Msg("No certificates found")
		return
	}

	// The leaf is whatever was presented first; everything else the caller
	// sent along rides in the key database's main store so findUp can
	// resolve issuers without needing to touch the network.
	leaf := chain.NewHandle(certChain[0])
	for _, cert := range certChain[1:] {
		if err := db.StoreCert(chain.NewHandle(cert), false); err != nil {
			log.Warn().Err(err).Msg("failed to stage presented certificate in key database")
		}
	}

	opts := chain.WalkOptions{
		DB:         db,
		TrustAgent: trustagent.NonInteractive{},

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
		ListMode:              cfg.ListMode,

		Status: func(status, key, value string) {
			log.Warn().Str("status", status).Str("key", key).Str("value", value).Msg("chain walk status emission")
		},

		Log: log,
	}

	result := chain.Walk(context.Background(), leaf, opts)

	pd, perfDataErr := getPerfData(certChain, result)
	if perfDataErr != nil {
		log.Error().Err(perfDataErr).Msg("failed to generate performance data")
		plugin.AddError(perfDataErr)
	} else if err := plugin.AddPerfData(false, pd...); err != nil {
		log.Error().Err(err).Msg("failed to add performance data")
		plugin.AddError(err)
	}

	switch {
	case result.Verdict != nil:
		plugin.AddError(result.Verdict)
		plugin.ServiceOutput = fmt.Sprintf("%s: %s", severityLabel(result.Verdict), result.Verdict.Error())
		plugin.LongServiceOutput = fmt.Sprintf(
			"Chain sourced from %s (%d certificates presented).",
			certChainSource,
			len(certChain),
		)
		plugin.ExitStatusCode = severityExitCode(result.Verdict)

		log.Error().Err(result.Verdict).Msg("chain validation failed")

	default:
		plugin.ServiceOutput = fmt.Sprintf("%s: certificate chain validated", nagios.StateOKLabel)
		plugin.LongServiceOutput = fmt.Sprintf(
			"Chain sourced from %s (%d certificates presented) validated to a trusted root.",
			certChainSource,
			len(certChain),
		)
		plugin.ExitStatusCode = nagios.StateOKExitCode

		log.Debug().Msg("certificate chain validated cleanly")
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

// loadCertChain resolves the configured certificate source (file or
// server) into a parsed certificate chain, leaf first, along with a
// human-readable description of where it came from.
func loadCertChain(cfg *config.Config, log zerolog.Logger) ([]*x509.Certificate, string, error) {
	switch {
	case cfg.Filename != "":
		log.Debug().Str("filename", cfg.Filename).Msg("parsing certificate file")

		certChain, leftovers, err := certs.GetCertsFromFile(cfg.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("parsing certificate file %q: %w", cfg.Filename, err)
		}
		if len(leftovers) > 0 {
			log.Warn().Int("leftover_bytes", len(leftovers)).Msg("unparsed data remained in certificate file")
		}

		return certChain, cfg.Filename, nil

	default:
		log.Debug().Str("server", cfg.Server).Int("port", cfg.Port).Msg("retrieving certificate chain from remote server")

		certChain, err := smimenet.GetCerts(cfg.Server, cfg.Port, cfg.Timeout(), log)
		if err != nil {
			return nil, "", fmt.Errorf("retrieving certificate chain from %s:%d: %w", cfg.Server, cfg.Port, err)
		}

		return certChain, fmt.Sprintf("%s:%d", cfg.Server, cfg.Port), nil
	}
}
