/*

This repo contains tools for validating S/MIME certificate chains.

PROJECT HOME

See our GitHub repo (https://github.com/smimechain/smimechain) for the latest
code, to file an issue or submit improvements for review and potential
inclusion into the project.

PURPOSE

Walk an S/MIME certificate chain from leaf to trust anchor, applying the
critical-extension, policy, CA-authority, revocation and trust gates a mail
agent would apply before accepting a signer's certificate.

FEATURES

• Nagios plugin for validating a certificate chain presented by a file or a
certificate-enabled service

• CLI tool for one-off inspection of a certificate chain, with optional
interactive trust prompting for unrecognized roots

USAGE - smimevalidate Nagios plugin

    smimevalidate x.y.z (https://github.com/smimechain/smimechain)

    Usage of smimevalidate:
    -auto-issuer-key-retrieve
            Whether the issuer resolver may consult the external directory collaborator when an issuer cannot be found in the key database.
    -branding
            Toggles emission of branding details with plugin status details. This output is disabled by default.
    -external-directory-url string
            URL of the HTTP endpoint queried by the issuer resolver's external-directory collaborator when -auto-issuer-key-retrieve is set.
    -filename string
            Fully-qualified path to a PEM formatted file containing the leaf certificate (and optionally additional intermediate certificates) to validate.
    -ignore-expiration
            Whether expired certificates should be logged as a warning instead of failing validation.
    -key-db string
            Path to the bbolt-backed key database file used to resolve issuer certificates and record per-certificate flags. (default "smimechain.keydb")
    -list-mode
            Whether each chain-walk failure is rendered as a bracketed diagnostic line instead of being logged.
    -ll string
            Sets log level. (shorthand) (default "info")
    -log-level string
            Sets log level. (default "info")
    -no-chain-validation
            Whether chain validation should be skipped entirely, succeeding immediately without inspection.
    -no-crl-check
            Whether CRL-backed revocation checking is globally disabled.
    -no-policy-check
            Whether the policy gate should be skipped entirely.
    -no-trusted-cert-crl-check
            Whether the revocation gate should be skipped for a trusted root.
    -p int
            TCP port of the remote certificate-enabled service. (shorthand) (default 443)
    -policy-file string
            Path to a policy file listing acceptable issuer certificatePolicies OIDs, one per line.
    -port int
            TCP port of the remote certificate-enabled service. (default 443)
    -qualified-list-url string
            URL of the HTTP endpoint queried by the default qualified-signature/RegTP classifier. Leave unset to skip qualified-signature classification and the RegTP legacy-CA rescue.
    -revocation-url string
            URL of the HTTP endpoint queried by the default revocation responder. Leave unset to skip the revocation gate entirely.
    -s string
            The fully-qualified domain name or IP Address of a certificate-enabled service from which the leaf certificate chain is retrieved for validation. Mutually exclusive with the filename flag. (shorthand)
    -server string
            The fully-qualified domain name or IP Address of a certificate-enabled service from which the leaf certificate chain is retrieved for validation. Mutually exclusive with the filename flag.
    -skip-revocation
            Whether the revocation gate should be skipped entirely for this invocation.
    -t int
            Timeout value in seconds allowed before a connection attempt to a remote certificate-enabled service is abandoned and an error returned. (shorthand) (default 10)
    -timeout int
            Timeout value in seconds allowed before a connection attempt to a remote certificate-enabled service is abandoned and an error returned. (default 10)
    -use-ocsp
            Whether the revocation gate should request OCSP (instead of CRL) validation from the revocation responder.
    -v    Whether to display application version and then immediately exit application. (shorthand)
    -version
            Whether to display application version and then immediately exit application.

USAGE - smimebasiccheck CLI tool

    smimebasiccheck x.y.z (https://github.com/smimechain/smimechain)

    Usage of smimebasiccheck:
    -basic
            Whether to perform a single-hop basic check (signature-only, no chain walk) instead of the full chain walk.
    -interactive
            Whether the trust-agent collaborator may interactively prompt to trust an unknown root certificate. Disabled automatically for plugin mode. (default true)
    (plus the shared flags documented above for smimevalidate)


*/
package main
