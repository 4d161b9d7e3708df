// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "encoding/asn1"

// knownCriticalExtensions is the hardcoded set of critical extension OIDs
// the engine comprehends: keyUsage, basicConstraints, certificatePolicies,
// and extKeyUsage. A critical extension outside this set halts the walk.
var knownCriticalExtensions = map[string]struct{}{
	"2.5.29.15": {}, // keyUsage
	"2.5.29.19": {}, // basicConstraints
	"2.5.29.32": {}, // certificatePolicies
	"2.5.29.37": {}, // extKeyUsage
}

// checkCriticalExtensions is the critical-extension gate. Any critical
// extension outside the known set is fatal with ErrUnsupportedCert.
func checkCriticalExtensions(cert *Handle) error {
	for _, ext := range cert.Cert.Extensions {
		if !ext.Critical {
			continue
		}
		if _, ok := knownCriticalExtensions[oidString(ext.Id)]; !ok {
			return ErrUnsupportedCert
		}
	}
	return nil
}

// oidString renders an OID in the dotted-decimal form the known-set keys
// are written in, via asn1.ObjectIdentifier.String().
func oidString(oid asn1.ObjectIdentifier) string {
	return oid.String()
}
