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
	"time"

	"github.com/atc0005/go-nagios"

	"github.com/smimechain/smimechain/internal/certs"
	"github.com/smimechain/smimechain/internal/chain"
)

// getPerfData generates performance data metrics describing the presented
// certificate chain and the outcome of walking it.
func getPerfData(certChain []*x509.Certificate, result chain.Result) ([]nagios.PerformanceData, error) {
	if len(certChain) == 0 {
		return nil, fmt.Errorf("func getPerfData: unable to generate metrics: %w", certs.ErrMissingValue)
	}

	var expiresIn int
	if !result.ExpTime.IsZero() {
		expiresIn = int(time.Until(result.ExpTime).Hours() / 24)
	}

	return []nagios.PerformanceData{
		{
			Label: "certs_presented",
			Value: fmt.Sprintf("%d", len(certChain)),
		},
		{
			Label: "certs_present_leaf",
			Value: fmt.Sprintf("%d", certs.NumLeafCerts(certChain)),
		},
		{
			Label: "certs_present_intermediate",
			Value: fmt.Sprintf("%d", certs.NumIntermediateCerts(certChain)),
		},
		{
			Label: "certs_present_root",
			Value: fmt.Sprintf("%d", certs.NumRootCerts(certChain)),
		},
		{
			Label:             "expires_min",
			Value:             fmt.Sprintf("%d", expiresIn),
			UnitOfMeasurement: "d",
		},
	}, nil
}
