// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package net

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// GetCerts retrieves and returns the certificate chain from the specified
// host & port or an error if one occurs. Enforced certificate verification is
// intentionally disabled in order to successfully retrieve and examine all
// certificates in the certificate chain.
func GetCerts(server string, port int, timeout time.Duration, logger zerolog.Logger) ([]*x509.Certificate, error) {

	var certChain []*x509.Certificate

	logger = logger.With().
		Str("server", server).
		Int("port", port).
		Str("timeout", timeout.String()).
		Logger()

	logger.Debug().Msg("Connecting to remote server")
	tlsConfig := tls.Config{
		// Permit insecure connection.
		//
		// This is needed so that we can examine not only valid certificates,
		// but certs that are expired, self-signed or having other properties
		// which make them invalid. This is also needed so that we can examine
		// not only the initial certificate, but others in the chain also.
		// This allows us to flag any intermediate or root certs which may
		// also be expired.
		//
		// Ignore security (gosec) linting warnings re this choice.
		// nolint:gosec
		InsecureSkipVerify: true,
	}

	// Create custom dialer with user-specified timeout value
	dialer := &net.Dialer{
		Timeout: timeout,
	}

	serverConnStr := fmt.Sprintf("%s:%d", server, port)
	conn, connErr := tls.DialWithDialer(dialer, "tcp", serverConnStr, &tlsConfig)
	if connErr != nil {
		return nil, fmt.Errorf("error connecting to server: %w", connErr)
	}
	logger.Debug().Msg("Connected")

	// grab certificate chain as presented by remote peer
	certChain = conn.ConnectionState().PeerCertificates
	logger.Debug().Msg("Retrieved certificate chain")

	// close connection once we're finished with it
	if err := conn.Close(); err != nil {
		errMsg := "error closing connection to server"
		logger.Error().Err(err).Msg(errMsg)

		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	logger.Debug().Msg("Successfully closed connection to server")

	return certChain, nil
}
