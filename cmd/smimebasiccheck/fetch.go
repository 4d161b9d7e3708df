// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package main

import (
	"crypto/x509"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smimechain/smimechain/internal/certs"
	"github.com/smimechain/smimechain/internal/config"
	smimenet "github.com/smimechain/smimechain/internal/net"
)

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
