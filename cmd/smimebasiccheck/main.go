// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

// Command smimebasiccheck is a standalone inspection tool for a single
// S/MIME certificate chain. By default it performs the full chain walk,
// prompting interactively to trust an unrecognized root; with -basic it
// instead performs only the single-hop signature check against the
// immediate issuer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/smimechain/smimechain/internal/chain"
	"github.com/smimechain/smimechain/internal/config"
	"github.com/smimechain/smimechain/internal/keydb"
)

// Lead-in markers for printed summary lines, matched to the severity they
// describe.
const (
	prefixOK       string = "✅"
	prefixWarning  string = "⚠️"
	prefixCritical string = "❌"
)

func main() {
	cfg, cfgErr := config.New(config.AppType{Inspecter: true})
	switch {
	case errors.Is(cfgErr, config.ErrVersionRequested):
		fmt.Println(config.Version())
		return

	case cfgErr != nil:
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		logger := zerolog.New(consoleWriter).With().Timestamp().Caller().Logger()
		logger.Err(cfgErr).Msg("Error initializing application")

		fmt.Fprintf(os.Stderr, "%s Error initializing application: %v\n", prefixCritical, cfgErr)
		os.Exit(1)
	}

	log := cfg.Log

	db, dbErr := keydb.Open(cfg.KeyDBPath)
	if dbErr != nil {
		log.Error().Err(dbErr).Msg("failed to open key database")
		fmt.Fprintf(os.Stderr, "%s Unable to open key database %q: %v\n", prefixCritical, cfg.KeyDBPath, dbErr)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing key database")
		}
	}()

	certChain, certChainSource, fetchErr := loadCertChain(cfg, log)
	if fetchErr != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", prefixCritical, fetchErr)
		os.Exit(1)
	}

	if len(certChain) == 0 {
		fmt.Fprintf(os.Stderr, "%s 0 certificates found in %s\n", prefixCritical, certChainSource)
		os.Exit(1)
	}

	leaf := chain.NewHandle(certChain[0])
	for _, cert := range certChain[1:] {
		if err := db.StoreCert(chain.NewHandle(cert), false); err != nil {
			log.Warn().Err(err).Msg("failed to stage presented certificate in key database")
		}
	}

	fmt.Printf("%d certificate(s) read from %s\n\n", len(certChain), certChainSource)

	ctx := context.Background()

	if cfg.Basic {
		runBasicCheck(ctx, leaf, db)
		return
	}

	runFullWalk(ctx, leaf, db, cfg, log)
}

