// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxPolicyLineLength is the maximum accepted length of a single policy
// file line.
const maxPolicyLineLength = 255

// policyEntry is one entry from a certificate's certificatePolicies
// extension: an OID plus whether it is marked critical.
type policyEntry struct {
	OID      string
	Critical bool
}

// certificatePolicies renders cert's certificatePolicies extension (OID
// 2.5.29.32) into one policyEntry per policy OID, each carrying the
// extension's critical flag, which the policy gate matches against. A
// certificate without the extension returns a nil slice.
func certificatePolicies(cert *Handle) []policyEntry {
	for _, ext := range cert.Cert.Extensions {
		if ext.Id.String() != "2.5.29.32" {
			continue
		}
		oids := make([]policyEntry, 0, len(cert.Cert.PolicyIdentifiers))
		for _, oid := range cert.Cert.PolicyIdentifiers {
			oids = append(oids, policyEntry{OID: oid.String(), Critical: ext.Critical})
		}
		return oids
	}
	return nil
}

// checkPolicy is the certificatePolicies allowlist gate. It fetches the
// subject's certificatePolicies listing and matches it against the
// configured policy file.
func checkPolicy(subject *Handle, policyFilePath string) error {
	policies := certificatePolicies(subject)
	if policies == nil {
		return nil
	}

	anyCritical := false
	for _, p := range policies {
		if p.Critical {
			anyCritical = true
			break
		}
	}

	f, err := os.Open(policyFilePath)
	if err != nil {
		if anyCritical {
			return ErrNoPolicyMatch
		}
		return nil
	}
	defer func() { _ = f.Close() }()

	matched, err := scanPolicyFile(f, policies)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}
	if anyCritical {
		return ErrNoPolicyMatch
	}
	return nil
}

// scanPolicyFile walks r line by line, matching each
// non-skipped line's leading OID token against policies. Match semantics:
// the OID must appear at the start of a policy listing entry followed by
// ":". An EOF that lands mid-line (no trailing newline) on a non-empty
// line fails ErrIncompleteLine; reaching true EOF right after a newline is
// fine.
func scanPolicyFile(r io.Reader, policies []policyEntry) (matched bool, err error) {
	reader := bufio.NewReader(r)

	for {
		line, readErr := reader.ReadString('\n')
		terminated := readErr == nil

		if !terminated && readErr != io.EOF {
			return false, fmt.Errorf("reading policy file: %w", readErr)
		}

		content := strings.TrimSuffix(line, "\n")
		if !terminated && content != "" {
			return false, ErrIncompleteLine
		}
		if content != "" {
			if len(content) > maxPolicyLineLength {
				return false, ErrLineTooLong
			}

			trimmed := strings.TrimLeft(content, " \t")
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				oid := firstToken(trimmed)
				if oid == "" {
					return false, ErrConfiguration
				}
				for _, p := range policies {
					if p.OID == oid {
						return true, nil
					}
				}
			}
		}

		if !terminated {
			return false, nil
		}
	}
}

// firstToken extracts the first whitespace- or colon-delimited token from
// a policy file line.
func firstToken(line string) string {
	end := strings.IndexFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ':'
	})
	if end < 0 {
		return line
	}
	return line[:end]
}
