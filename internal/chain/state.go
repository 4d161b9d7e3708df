// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"crypto/sha1" //nolint:gosec // fingerprint form is mandated by the source scheme, not used for security decisions
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var oidAuthorityKeyIdentifier = asn1.ObjectIdentifier{2, 5, 29, 35}

// maxDepth bounds how many certificates a single chain walk may visit
// before it is declared too deep to be a legitimate chain.
const maxDepth = 50

// issuerSerial is the (issuer-name, serial) pair optionally carried by an
// authority key identifier extension.
type issuerSerial struct {
	Issuer string
	Serial *big.Int
}

// authorityKeyID is the parsed form of the 2.5.29.35 extension.
type authorityKeyID struct {
	KeyID  []byte
	Issuer *issuerSerial
}

// Handle wraps an *x509.Certificate with the per-certificate cache used by
// the qualified-signature classifier and the RegTP classifier, and the
// authority key identifier triple the stdlib does not surface directly.
//
// Handle is not safe for concurrent mutation of its cache from more than
// one chain walk; callers sharing a Handle across walks must serialize
// access themselves.
type Handle struct {
	Cert *x509.Certificate

	mu       sync.Mutex
	isQualified  *bool
	regtpChainLen *int // -1 means "not RegTP"; else 0 or 1
	aki          *authorityKeyID
	akiParsed    bool
}

// NewHandle wraps an already-parsed certificate.
func NewHandle(cert *x509.Certificate) *Handle {
	return &Handle{Cert: cert}
}

// Fingerprint returns the SHA-1 digest of the certificate's DER image,
// used as the stable identity for the already-asked cache and the
// per-certificate flags side table.
func (h *Handle) Fingerprint() [20]byte {
	return sha1.Sum(h.Cert.Raw) //nolint:gosec // fingerprint form mandated, not a security boundary
}

// IssuerDN and SubjectDN return the certificate's distinguished names in
// their canonical string form.
func (h *Handle) IssuerDN() string  { return h.Cert.Issuer.String() }
func (h *Handle) SubjectDN() string { return h.Cert.Subject.String() }

// IsRoot reports whether a certificate is self-issued: its issuer DN
// equals its subject DN.
func (h *Handle) IsRoot() bool {
	return h.IssuerDN() == h.SubjectDN()
}

// SameImage reports whether two handles carry byte-identical DER images,
// the equality test used by the issuer resolver's oscillation guard and
// to keep findUp from ever returning its own subject.
func (h *Handle) SameImage(other *Handle) bool {
	if other == nil {
		return false
	}
	return string(h.Cert.Raw) == string(other.Cert.Raw)
}

// AuthorityKeyID parses and caches the 2.5.29.35 extension. A nil return
// means the certificate carries no AKI extension.
func (h *Handle) AuthorityKeyID() (*authorityKeyID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.akiParsed {
		return h.aki, nil
	}
	h.akiParsed = true

	var raw []byte
	for _, ext := range h.Cert.Extensions {
		if ext.Id.Equal(oidAuthorityKeyIdentifier) {
			raw = ext.Value
			break
		}
	}
	if raw == nil {
		return nil, nil
	}

	aki, err := parseAuthorityKeyID(raw)
	if err != nil {
		return nil, err
	}
	h.aki = aki
	return aki, nil
}

// SubjectKeyID returns the 2.5.29.14 subjectKeyIdentifier, already parsed
// by the stdlib into Cert.SubjectKeyId.
func (h *Handle) SubjectKeyID() []byte {
	return h.Cert.SubjectKeyId
}

// IsQualified returns the cached qualified-signature classification, and
// whether the cache slot has been populated at all.
func (h *Handle) IsQualified() (qualified bool, known bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isQualified == nil {
		return false, false
	}
	return *h.isQualified, true
}

// SetIsQualified persists the qualified-signature classification.
func (h *Handle) SetIsQualified(qualified bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isQualified = &qualified
}

// RegTPChainLen returns the cached RegTP pathlen classification. known is
// false if the certificate has not yet been visited by the RegTP
// classifier; chainLen is -1 if the certificate was visited and found not
// to be a RegTP case.
func (h *Handle) RegTPChainLen() (chainLen int, known bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.regtpChainLen == nil {
		return 0, false
	}
	return *h.regtpChainLen, true
}

// SetRegTPChainLen persists the RegTP classification for this certificate.
// Pass -1 to record "visited, not a RegTP case" so a later pass is served
// from cache instead of re-walking.
func (h *Handle) SetRegTPChainLen(chainLen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regtpChainLen = &chainLen
}

// parseAuthorityKeyID decodes the AuthorityKeyIdentifier SEQUENCE per RFC
// 5280 §4.2.1.1. Only the keyIdentifier and the authorityCertIssuer
// directoryName / authorityCertSerialNumber triple are extracted; other
// GeneralName choices within authorityCertIssuer are ignored, matching the
// certificate handle's documented "optional triple of key-id bytes,
// issuer-name, issuer-serial" shape.
func parseAuthorityKeyID(raw []byte) (*authorityKeyID, error) {
	var seq asn1.RawValue
	if _, err := asn1.Unmarshal(raw, &seq); err != nil {
		return nil, fmt.Errorf("parsing authorityKeyIdentifier: %w", err)
	}

	aki := &authorityKeyID{}
	rest := seq.Bytes
	for len(rest) > 0 {
		var v asn1.RawValue
		var err error
		rest, err = asn1.Unmarshal(rest, &v)
		if err != nil {
			return nil, fmt.Errorf("parsing authorityKeyIdentifier field: %w", err)
		}

		switch v.Tag {
		case 0: // keyIdentifier [0] IMPLICIT KeyIdentifier
			aki.KeyID = v.Bytes

		case 1: // authorityCertIssuer [1] IMPLICIT GeneralNames
			if name, ok := parseDirectoryName(v.Bytes); ok {
				if aki.Issuer == nil {
					aki.Issuer = &issuerSerial{}
				}
				aki.Issuer.Issuer = name
			}

		case 2: // authorityCertSerialNumber [2] IMPLICIT CertificateSerialNumber
			if aki.Issuer == nil {
				aki.Issuer = &issuerSerial{}
			}
			aki.Issuer.Serial = new(big.Int).SetBytes(v.Bytes)
		}
	}

	return aki, nil
}

// parseDirectoryName scans a GeneralNames SEQUENCE for the first
// directoryName [4] choice and returns its canonical string form.
func parseDirectoryName(raw []byte) (string, bool) {
	rest := raw
	for len(rest) > 0 {
		var gn asn1.RawValue
		var err error
		rest, err = asn1.Unmarshal(rest, &gn)
		if err != nil {
			return "", false
		}
		if gn.Class == asn1.ClassContextSpecific && gn.Tag == 4 {
			var rdn pkix.RDNSequence
			if _, err := asn1.Unmarshal(gn.Bytes, &rdn); err != nil {
				continue
			}
			var name pkix.Name
			name.FillFromRDNSequence(&rdn)
			return name.String(), true
		}
	}
	return "", false
}

// KeyDB is the key-database collaborator: a cursor over one or more
// certificate stores. Implementations live in internal/keydb.
//
// Ephemeral visibility follows an "enter/leave" scoped pattern rather than
// a save-restore integer: EnterEphemeral returns a leave func that
// restores prior visibility, which callers defer so the toggle is undone
// on every return path.
type KeyDB interface {
	// Reset clears cursor position without affecting store contents.
	Reset()

	// SearchIssuerSerial positions the cursor on certificates whose
	// issuer DN and serial number match, returning them one at a time
	// from Next.
	SearchIssuerSerial(issuerDN string, serial *big.Int)

	// SearchSubject positions the cursor on certificates whose subject DN
	// matches, returning them one at a time from Next.
	SearchSubject(subjectDN string)

	// Next returns the next certificate under the current search, or nil
	// if the search is exhausted ("no more").
	Next() (*Handle, error)

	// EnterEphemeral makes the ephemeral ("just fetched") store visible to
	// subsequent searches until the returned func is called.
	EnterEphemeral() (leave func())

	// StoreCert persists cert into the main store, or the ephemeral store
	// if ephemeral is true.
	StoreCert(cert *Handle, ephemeral bool) error

	// SetCertFlags sets bits in the named flag slot for cert, best-effort.
	SetCertFlags(cert *Handle, slot string, mask, value uint32) error
}

// CertFlagValidity is the flag slot written by the revocation gate on a
// revoked verdict.
const CertFlagValidity = "validity"

// FlagValidityRevoked is the value stored under CertFlagValidity.
const FlagValidityRevoked uint32 = 1 << 0

// Clock abstracts "now" so expiration checks can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
