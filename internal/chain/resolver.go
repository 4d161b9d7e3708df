// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"bytes"
	"context"
	"strings"
)

// findUp is the issuer resolver. Given subject, it locates subject's issuer
// certificate in db using the five search strategies in order, falling
// through only on "not found". findNext runs no new search and no
// ephemeral/external fallback: it continues the cursor left by the
// previous search; it is used by the walker's "try another issuer with the
// same DN" recovery step.
//
// findUp never returns subject itself: any candidate whose image matches
// subject's is skipped.
func findUp(ctx context.Context, subject *Handle, db KeyDB, findNext bool) (*Handle, error) {
	if db == nil {
		return nil, nil
	}

	aki, err := subject.AuthorityKeyID()
	if err != nil {
		return nil, err
	}

	// findNext: continue the cursor left by the previous search instead of
	// restarting it, so a further certificate sharing the issuer DN is
	// reached.
	if findNext {
		return nextCandidate(db, subject), nil
	}

	// Strategy 1: AKI issuer+serial.
	if aki != nil && aki.Issuer != nil && aki.Issuer.Issuer != "" && aki.Issuer.Serial != nil {
		if cand := searchFirst(db, subject, func() { db.SearchIssuerSerial(aki.Issuer.Issuer, aki.Issuer.Serial) }); cand != nil {
			return cand, nil
		}
		if cand := underEphemeral(db, subject, func() { db.SearchIssuerSerial(aki.Issuer.Issuer, aki.Issuer.Serial) }); cand != nil {
			return cand, nil
		}
	}

	// Strategy 2: AKI keyIdentifier.
	if aki != nil && len(aki.KeyID) > 0 {
		if cand := searchByKeyID(db, subject, subject.IssuerDN(), aki.KeyID); cand != nil {
			return cand, nil
		}
		if cand := underEphemeralFn(db, func() *Handle { return searchByKeyID(db, subject, subject.IssuerDN(), aki.KeyID) }); cand != nil {
			return cand, nil
		}
	}

	// Strategy 3: external lookup (auto_issuer_key_retrieve).
	if r, ok := resolverFromContext(ctx); ok && r.externalDirectory != nil && r.autoIssuerKeyRetrieve {
		pattern := normalizeDNPattern(subject.IssuerDN())
		_ = r.externalDirectory.Lookup(ctx, pattern, func(cert *Handle) error {
			return db.StoreCert(cert, true)
		})

		found := underEphemeralFn(db, func() *Handle {
			if aki != nil && len(aki.KeyID) > 0 {
				return searchByKeyID(db, subject, subject.IssuerDN(), aki.KeyID)
			}
			return searchFirst(db, subject, func() { db.SearchSubject(subject.IssuerDN()) })
		})
		if found != nil {
			return found, nil
		}
	}

	// Strategy 4: subject DN alone, main store then ephemeral.
	if cand := searchFirst(db, subject, func() { db.SearchSubject(subject.IssuerDN()) }); cand != nil {
		return cand, nil
	}
	if cand := underEphemeral(db, subject, func() { db.SearchSubject(subject.IssuerDN()) }); cand != nil {
		return cand, nil
	}

	// Strategy 5: external lookup by DN.
	if r, ok := resolverFromContext(ctx); ok && r.externalDirectory != nil && r.autoIssuerKeyRetrieve {
		pattern := normalizeDNPattern(subject.IssuerDN())
		_ = r.externalDirectory.Lookup(ctx, pattern, func(cert *Handle) error {
			return db.StoreCert(cert, true)
		})
		if cand := underEphemeral(db, subject, func() { db.SearchSubject(subject.IssuerDN()) }); cand != nil {
			return cand, nil
		}
	}

	return nil, nil
}

// searchFirst runs search against db's current store visibility and
// returns the first result that is not subject itself.
func searchFirst(db KeyDB, subject *Handle, search func()) *Handle {
	search()
	return nextCandidate(db, subject)
}

// nextCandidate advances db's current cursor and returns the next result
// that is not subject itself, or nil once the cursor is exhausted.
func nextCandidate(db KeyDB, subject *Handle) *Handle {
	for {
		cand, err := db.Next()
		if err != nil || cand == nil {
			return nil
		}
		if !cand.SameImage(subject) {
			return cand
		}
	}
}

// underEphemeral runs search with the ephemeral store made visible for the
// duration of the call.
func underEphemeral(db KeyDB, subject *Handle, search func()) *Handle {
	leave := db.EnterEphemeral()
	defer leave()
	return searchFirst(db, subject, search)
}

// underEphemeralFn is underEphemeral's shape for callers that already have
// a closure producing the candidate.
func underEphemeralFn(db KeyDB, find func() *Handle) *Handle {
	leave := db.EnterEphemeral()
	defer leave()
	return find()
}

// searchByKeyID iterates search_subject(issuerDN) and returns the first
// match whose subjectKeyIdentifier equals keyID, bytewise.
func searchByKeyID(db KeyDB, subject *Handle, issuerDN string, keyID []byte) *Handle {
	db.SearchSubject(issuerDN)
	for {
		cand, err := db.Next()
		if err != nil || cand == nil {
			return nil
		}
		if cand.SameImage(subject) {
			continue
		}
		if bytes.Equal(cand.SubjectKeyID(), keyID) {
			return cand
		}
	}
}

// normalizeDNPattern strips a distinguished name down to start at its
// "CN=" component when that component is not already the leftmost RDN,
// the normalization the external lookup strategy applies before querying
// the directory collaborator.
func normalizeDNPattern(dn string) string {
	if strings.HasPrefix(dn, "CN=") {
		return dn
	}
	idx := strings.Index(dn, "CN=")
	if idx < 0 {
		return dn
	}
	return dn[idx:]
}

// resolverContext carries the collaborators find_up needs beyond the
// KeyDB interface, threaded via context so the resolver's signature stays
// stable across callers (the walker and the RegTP classifier share it).
type resolverContext struct {
	externalDirectory     ExternalDirectory
	autoIssuerKeyRetrieve bool
}

type resolverContextKey struct{}

func withResolverContext(ctx context.Context, rc resolverContext) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, rc)
}

func resolverFromContext(ctx context.Context) (resolverContext, bool) {
	rc, ok := ctx.Value(resolverContextKey{}).(resolverContext)
	return rc, ok
}
