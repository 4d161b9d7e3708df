// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPRevocationResponder is the default RevocationResponder, fronting a
// delegated OCSP or CRL-fetching HTTP endpoint. It does not parse CRLs or
// speak the OCSP wire protocol itself (both are explicit Non-goals);
// instead it expects the endpoint to have already reduced the question to
// one of the three status strings the gate understands.
type HTTPRevocationResponder struct {
	Client   *http.Client
	Endpoint string
}

// IsValid implements RevocationResponder.
func (r HTTPRevocationResponder) IsValid(ctx context.Context, subject, issuer *Handle, useOCSP bool) error {
	client := r.client()

	q := url.Values{}
	q.Set("subject_fp", fmt.Sprintf("%x", subject.Fingerprint()))
	q.Set("issuer_fp", fmt.Sprintf("%x", issuer.Fingerprint()))
	if useOCSP {
		q.Set("method", "ocsp")
	} else {
		q.Set("method", "crl")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building revocation request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("querying revocation responder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	status := string(body)

	switch status {
	case "ok", "":
		return nil
	case "revoked":
		return ErrCertRevoked
	case "no-crl-known":
		return ErrNoCRLKnown
	case "crl-too-old":
		return ErrCRLTooOld
	default:
		return fmt.Errorf("revocation responder: unrecognized status %q", status)
	}
}

func (r HTTPRevocationResponder) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// HTTPExternalDirectory is the default ExternalDirectory, querying a
// delegated certificate-lookup HTTP endpoint that streams back a sequence
// of PEM-encoded certificates.
type HTTPExternalDirectory struct {
	Client   *http.Client
	Endpoint string
}

// Lookup implements ExternalDirectory.
func (d HTTPExternalDirectory) Lookup(ctx context.Context, pattern string, cb func(*Handle) error) error {
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	q := url.Values{}
	q.Set("pattern", pattern)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building directory lookup request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("querying external directory: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading external directory response: %w", err)
	}

	rest := body
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if err := cb(NewHandle(cert)); err != nil {
			return err
		}
	}

	return nil
}

// HTTPQualifiedList is the default QualifiedList, querying a delegated
// qualified-issuer-list HTTP endpoint keyed by fingerprint.
type HTTPQualifiedList struct {
	Client   *http.Client
	Endpoint string
}

// IsInQualifiedList implements QualifiedList.
func (q HTTPQualifiedList) IsInQualifiedList(ctx context.Context, cert *Handle) (string, error) {
	client := q.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	reqURL := fmt.Sprintf("%s?fp=%x", q.Endpoint, cert.Fingerprint())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("building qualified-list request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying qualified-list: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8))
	country := string(body)
	if len(country) < 2 {
		return "", ErrNotFound
	}
	return country[:2], nil
}
