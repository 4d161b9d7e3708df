// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "context"

// unlimitedChainLen represents an absent pathlen constraint.
const unlimitedChainLen = -1

// checkCAAuthority is the CA-authority gate. It accepts cert as a valid
// issuer iff its basicConstraints marks it a CA, falling back to the
// RegTP classifier when it does not.
func checkCAAuthority(ctx context.Context, cert *Handle, db KeyDB, ql QualifiedList) (chainLen int, err error) {
	if cert.Cert.IsCA {
		if cert.Cert.MaxPathLen == 0 && !cert.Cert.MaxPathLenZero {
			return unlimitedChainLen, nil
		}
		return cert.Cert.MaxPathLen, nil
	}

	if isCA, pathLen := classifyRegTP(ctx, cert, db, ql); isCA {
		return pathLen, nil
	}

	return 0, ErrBadCACert
}
