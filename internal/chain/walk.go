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
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// maxSignatureRetries caps the "try another issuer with the same subject
// DN" recovery so a pathological store cannot loop forever.
const maxSignatureRetries = 4

// StatusEmitter receives the one structured status emission the walker
// produces, on key-usage failure.
type StatusEmitter func(status, key, value string)

// WalkOptions configures a single Walk invocation. None of the
// collaborator fields are required. A nil Revocation, QualifiedList or
// ExternalDirectory makes its gate or strategy a no-op; a nil TrustAgent
// treats every root as untrusted; a nil DB finds no issuer.
type WalkOptions struct {
	Session  *Session
	DB       KeyDB
	Clock    Clock

	TrustAgent        TrustAgent
	Revocation        RevocationResponder
	QualifiedList     QualifiedList
	ExternalDirectory ExternalDirectory

	ListMode bool
	DiagSink io.Writer
	Status   StatusEmitter

	SkipRevocation        bool
	NoChainValidation     bool
	NoPolicyCheck         bool
	NoCRLCheck            bool
	NoTrustedCertCRLCheck bool
	IgnoreExpiration      bool
	AutoIssuerKeyRetrieve bool
	UseOCSP               bool
	PolicyFile            string

	Log zerolog.Logger
}

// Result is the outcome of a Walk call: the terminal verdict (nil on
// success) and the earliest not-after timestamp observed across every
// visited node.
type Result struct {
	Verdict error
	ExpTime time.Time
}

// Walk is the top-level state machine that traverses a certificate chain
// from leaf upward to a self-issued root, aggregating soft errors and
// producing the final verdict.
func Walk(ctx context.Context, leaf *Handle, opts WalkOptions) Result {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Session == nil {
		opts.Session = NewSession()
	}

	ctx = withResolverContext(ctx, resolverContext{
		externalDirectory:     opts.ExternalDirectory,
		autoIssuerKeyRetrieve: opts.AutoIssuerKeyRetrieve,
	})

	if opts.NoChainValidation && !opts.ListMode {
		opts.Log.Warn().Msg("chain validation disabled, succeeding without inspection")
		return Result{}
	}

	var flags softFlags
	var exptime time.Time
	exptimeSet := false

	subject := leaf
	depth := 0
	var rootCAFlags RootCAFlags

	for {
		log := opts.Log.With().
			Str("subject_dn", subject.SubjectDN()).
			Str("issuer_dn", subject.IssuerDN()).
			Int("depth", depth).
			Logger()

		if subject.IssuerDN() == "" {
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCert)
		}

		isRoot := subject.IsRoot()

		var rootTrusted bool
		var rootTrustErr error
		if isRoot {
			var err error
			rootTrusted, rootCAFlags, err = callTrustAgent(ctx, opts.TrustAgent, subject)
			rootTrustErr = err
		}

		// Step 3: validity window.
		notBefore, notAfter := subject.Cert.NotBefore, subject.Cert.NotAfter
		if !exptimeSet || notAfter.Before(exptime) {
			exptime = notAfter
			exptimeSet = true
		}
		now := opts.Clock.Now()
		if now.Before(notBefore) {
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrCertTooYoung)
		}
		if now.After(notAfter) {
			if !opts.IgnoreExpiration {
				flags.anyExpired = true
			} else {
				log.Warn().Msg("ignoring expired certificate per configuration")
			}
		}

		// Step 4: critical-extension gate.
		if err := checkCriticalExtensions(subject); err != nil {
			return fail(opts, leaf, flags, exptime, exptimeSet, err)
		}

		// Step 5: policy gate.
		if !opts.NoPolicyCheck {
			if err := checkPolicy(subject, opts.PolicyFile); err != nil {
				if isErr(err, ErrNoPolicyMatch) {
					flags.anyNoPolicyMatch = true
				} else {
					return fail(opts, leaf, flags, exptime, exptimeSet, err)
				}
			}
		}

		if isRoot {
			if !rootTrusted {
				if err := subject.Cert.CheckSignatureFrom(subject.Cert); err != nil {
					if depth == 0 {
						return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCert)
					}
					return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
				}
			}

			if !rootCAFlags.Relax {
				if _, err := checkCAAuthority(ctx, subject, opts.DB, opts.QualifiedList); err != nil {
					return fail(opts, leaf, flags, exptime, exptimeSet, err)
				}
			}

			resolveQualified(ctx, leaf, opts.QualifiedList, opts.Log)

			if !rootTrusted {
				switch {
				case rootTrustErr == nil:
					// NOT_TRUSTED with no distinguishing error: prompt
					// unless already expired this walk or already asked.
					if !flags.anyExpired && !opts.Session.WasAsked(subject) {
						opts.Session.MarkAsked(subject)
						if opts.TrustAgent != nil && !opts.Session.NoMoreQuestions() {
							mtErr := opts.TrustAgent.MarkTrusted(ctx, subject)
							switch {
							case mtErr == nil:
								rootTrustErr = nil
								rootTrusted = true
							case isErr(mtErr, ErrNotSupported), isErr(mtErr, ErrCanceled):
								opts.Session.LatchNoMoreQuestions()
								rootTrustErr = mtErr
							default:
								rootTrustErr = mtErr
							}
						}
					}
				default:
					// Any other collaborator error on the trust query
					// preserves the error as-is.
				}
			}

			if revocationEnabled(opts.SkipRevocation, opts.NoCRLCheck, opts.UseOCSP) &&
				!opts.NoTrustedCertCRLCheck && !rootCAFlags.Relax {
				// Root revocation is checked unconditionally here even though
				// it duplicates the revocation gate's later self-edge
				// semantics for non-root nodes.
				if err := checkRevocation(ctx, subject, subject, opts.Revocation, opts.UseOCSP, opts.DB, &flags); err != nil {
					return fail(opts, leaf, flags, exptime, exptimeSet, err)
				}
			}

			if !rootTrusted {
				return fail(opts, leaf, flags, exptime, exptimeSet, ErrNotTrusted)
			}

			// Exit the loop: success unless a soft flag is set.
			return finish(opts, leaf, flags, exptime)
		}

		// Step 7: not root.
		depth++
		if depth > maxDepth {
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
		}

		issuer, err := findUp(ctx, subject, opts.DB, false)
		if err != nil {
			return fail(opts, leaf, flags, exptime, exptimeSet, err)
		}
		if issuer == nil {
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrMissingCert)
		}

		// Step 8: signature check, with same-DN retry on bad signature.
		aki, _ := subject.AuthorityKeyID()
		noAKIKeyID := aki == nil || len(aki.KeyID) == 0
		retries := 0
		for {
			sigErr := subject.Cert.CheckSignatureFrom(issuer.Cert)
			if sigErr == nil {
				break
			}

			if !noAKIKeyID || retries >= maxSignatureRetries {
				return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
			}

			candidate, findErr := findUp(ctx, subject, opts.DB, true)
			if findErr != nil || candidate == nil || candidate.SameImage(issuer) {
				return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
			}
			issuer = candidate
			retries++
		}

		// Step 9: CA gate on the issuer.
		chainLen, caErr := checkCAAuthority(ctx, issuer, opts.DB, opts.QualifiedList)
		if caErr != nil {
			if issuer.IsRoot() {
				trusted, flagsForIssuer, trustErr := callTrustAgent(ctx, opts.TrustAgent, issuer)
				if trustErr == nil && trusted && flagsForIssuer.Relax {
					chainLen = unlimitedChainLen
					caErr = nil
				}
			}
			if caErr != nil {
				return fail(opts, leaf, flags, exptime, exptimeSet, caErr)
			}
		}
		if chainLen != unlimitedChainLen && (depth-1) > chainLen {
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
		}

		// Step 10: issuer key-usage permits certificate signing.
		if issuer.Cert.KeyUsage != 0 && issuer.Cert.KeyUsage&x509.KeyUsageCertSign == 0 {
			if opts.Status != nil {
				opts.Status("STATUS_ERROR", "certcert.issuer.keyusage", ErrBadCertChain.Error())
			}
			return fail(opts, leaf, flags, exptime, exptimeSet, ErrBadCertChain)
		}

		// Step 11: revocation gate on the (subject, issuer) edge.
		if revocationEnabled(opts.SkipRevocation, opts.NoCRLCheck, opts.UseOCSP) {
			if err := checkRevocation(ctx, subject, issuer, opts.Revocation, opts.UseOCSP, opts.DB, &flags); err != nil {
				return fail(opts, leaf, flags, exptime, exptimeSet, err)
			}
		}

		// Step 12: advance.
		subject = issuer
	}
}

// callTrustAgent consults the trust-agent collaborator, normalizing a nil
// TrustAgent to "untrusted, no error" so callers don't special-case it.
func callTrustAgent(ctx context.Context, agent TrustAgent, cert *Handle) (bool, RootCAFlags, error) {
	if agent == nil {
		return false, RootCAFlags{}, nil
	}
	return agent.IsTrusted(ctx, cert)
}

// fail finalizes a fatal-verdict exit, rendering a list-mode diagnostic
// line if applicable.
func fail(opts WalkOptions, leaf *Handle, flags softFlags, exptime time.Time, exptimeSet bool, verdict error) Result {
	if opts.ListMode && opts.DiagSink != nil {
		fmt.Fprintf(opts.DiagSink, "[%s]\n", verdict)
	} else {
		opts.Log.Error().Err(verdict).Msg("chain validation failed")
	}
	res := Result{Verdict: verdict}
	if exptimeSet {
		res.ExpTime = exptime
	}
	return res
}

// finish finalizes a non-fatal exit, resolving the accumulated soft flags
// to the terminal verdict in priority order.
func finish(opts WalkOptions, leaf *Handle, flags softFlags, exptime time.Time) Result {
	verdict := flags.Terminal()
	if verdict != nil && opts.ListMode && opts.DiagSink != nil {
		fmt.Fprintf(opts.DiagSink, "[%s]\n", verdict)
	}
	return Result{Verdict: verdict, ExpTime: exptime}
}
