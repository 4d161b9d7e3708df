// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "context"

// regTPCountry is the country attribute value that, combined with
// qualified-list membership, rescues a non-CA certificate as a RegTP CA.
// RegTP is the legacy name of the German regulator whose CAs predate the
// basicConstraints extension.
const regTPCountry = "de"

// regTPWalkSlots bounds the upward walk performed by the RegTP classifier:
// the certificate under test plus up to 3 further levels.
const regTPWalkSlots = 4

// classifyRegTP is the RegTP legacy-CA rescue. It is invoked when the
// CA-authority gate sees a certificate lacking a CA basicConstraints
// marking. It walks up the chain, using the issuer resolver and the
// is-root predicate, to at most regTPWalkSlots levels; if the terminal
// root is on the qualified list with country "de", the root (chainlen 1)
// and its immediate child (chainlen 0) are rescued as RegTP CAs with an
// imputed pathlen, and the other walked certificates are marked not-RegTP.
//
// Every visited certificate, match or not, is marked in its
// regtp_ca_chainlen cache slot so a later pass over the same certificate
// is served from cache instead of re-walking.
func classifyRegTP(ctx context.Context, cert *Handle, db KeyDB, ql QualifiedList) (isCA bool, pathLen int) {
	if chainLen, known := cert.RegTPChainLen(); known {
		return chainLen >= 0, chainLen
	}

	visited := make([]*Handle, 0, regTPWalkSlots)
	visited = append(visited, cert)

	current := cert
	for len(visited) < regTPWalkSlots && !current.IsRoot() {
		issuer, err := findUp(ctx, current, db, false)
		if err != nil || issuer == nil {
			break
		}
		visited = append(visited, issuer)
		current = issuer
	}

	root := visited[len(visited)-1]
	rescued := root.IsRoot() && ql != nil
	if rescued {
		country, err := ql.IsInQualifiedList(ctx, root)
		rescued = err == nil && country == regTPCountry
	}

	if !rescued {
		for _, v := range visited {
			v.SetRegTPChainLen(-1)
		}
		return false, 0
	}

	// The root is marked chainlen 1 ("self plus one"); the immediate child
	// (if any) is marked chainlen 0.
	root.SetRegTPChainLen(1)
	if len(visited) >= 2 {
		visited[len(visited)-2].SetRegTPChainLen(0)
	}
	for i := 0; i < len(visited)-2; i++ {
		visited[i].SetRegTPChainLen(-1)
	}

	switch {
	case cert == root:
		return true, 1
	case len(visited) >= 2 && cert == visited[len(visited)-2]:
		return true, 0
	default:
		return false, 0
	}
}
