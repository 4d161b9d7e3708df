// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package config

const myAppName string = "smimechain"
const myAppURL string = "github.com/smimechain/smimechain"

// ExitCodeCatchall indicates a general or miscellaneous error has occurred.
// See https://tldp.org/LDP/abs/html/exitcodes.html for additional details.
const ExitCodeCatchall int = 1

const (
	versionFlagHelp              string = "Whether to display application version and then immediately exit application."
	logLevelFlagHelp             string = "Sets log level."
	filenameFlagHelp             string = "Fully-qualified path to a PEM formatted file containing the leaf certificate (and optionally additional intermediate certificates) to validate."
	serverFlagHelp               string = "The fully-qualified domain name or IP Address of a certificate-enabled service from which the leaf certificate chain is retrieved for validation. Mutually exclusive with the filename flag."
	portFlagHelp                 string = "TCP port of the remote certificate-enabled service."
	timeoutFlagHelp              string = "Timeout value in seconds allowed before a connection attempt to a remote certificate-enabled service is abandoned and an error returned."
	keyDBFlagHelp                string = "Path to the bbolt-backed key database file used to resolve issuer certificates and record per-certificate flags."
	policyFileFlagHelp           string = "Path to a policy file listing acceptable issuer certificatePolicies OIDs, one per line."
	revocationURLFlagHelp        string = "URL of the HTTP endpoint queried by the default revocation responder. Leave unset to skip the revocation gate entirely."
	qualifiedListURLFlagHelp     string = "URL of the HTTP endpoint queried by the default qualified-signature/RegTP classifier. Leave unset to skip qualified-signature classification and the RegTP legacy-CA rescue."
	externalDirectoryURLFlagHelp string = "URL of the HTTP endpoint queried by the issuer resolver's external-directory collaborator when -auto-issuer-key-retrieve is set."
	skipRevocationFlagHelp       string = "Whether the revocation gate should be skipped entirely for this invocation."
	noChainValidationFlagHelp    string = "Whether chain validation should be skipped entirely, succeeding immediately without inspection."
	noPolicyCheckFlagHelp        string = "Whether the policy gate should be skipped entirely."
	noCRLCheckFlagHelp           string = "Whether CRL-backed revocation checking is globally disabled."
	noTrustedCertCRLCheckFlagHelp string = "Whether the revocation gate should be skipped for a trusted root."
	ignoreExpirationFlagHelp     string = "Whether expired certificates should be logged as a warning instead of failing validation."
	autoIssuerKeyRetrieveFlagHelp string = "Whether the issuer resolver may consult the external directory collaborator when an issuer cannot be found in the key database."
	useOCSPFlagHelp              string = "Whether the revocation gate should request OCSP (instead of CRL) validation from the revocation responder."
	interactiveFlagHelp          string = "Whether the trust-agent collaborator may interactively prompt to trust an unknown root certificate. Disabled automatically for plugin mode."
	listModeFlagHelp             string = "Whether each chain-walk failure is rendered as a bracketed diagnostic line instead of being logged."
	brandingFlagHelp             string = "Toggles emission of branding details with plugin status details. This output is disabled by default."
	basicFlagHelp                string = "Whether to perform a single-hop basic check (signature-only, no chain walk) instead of the full chain walk."
)

// Flag names for consistent references. Exported so that they're available
// from tests.
const (
	VersionFlagLong  string = "version"
	VersionFlagShort string = "v"

	ServerFlagLong  string = "server"
	ServerFlagShort string = "s"

	PortFlagLong  string = "port"
	PortFlagShort string = "p"

	FilenameFlagLong string = "filename"

	TimeoutFlagLong  string = "timeout"
	TimeoutFlagShort string = "t"

	LogLevelFlagLong  string = "log-level"
	LogLevelFlagShort string = "ll"

	KeyDBFlagLong                string = "key-db"
	PolicyFileFlagLong           string = "policy-file"
	RevocationURLFlagLong        string = "revocation-url"
	QualifiedListURLFlagLong     string = "qualified-list-url"
	ExternalDirectoryURLFlagLong string = "external-directory-url"
	SkipRevocationFlagLong       string = "skip-revocation"
	NoChainValidationFlagLong    string = "no-chain-validation"
	NoPolicyCheckFlagLong        string = "no-policy-check"
	NoCRLCheckFlagLong           string = "no-crl-check"
	NoTrustedCertCRLCheckFlagLong string = "no-trusted-cert-crl-check"
	IgnoreExpirationFlagLong     string = "ignore-expiration"
	AutoIssuerKeyRetrieveFlagLong string = "auto-issuer-key-retrieve"
	UseOCSPFlagLong              string = "use-ocsp"
	InteractiveFlagLong          string = "interactive"
	ListModeFlagLong             string = "list-mode"
	BrandingFlag                 string = "branding"
	BasicFlagLong                string = "basic"
)

// Default flag settings if not overridden by user input.
const (
	defaultLogLevel              string = "info"
	defaultServer                string = ""
	defaultFilename               string = ""
	defaultPort                  int    = 443
	defaultTimeout                int    = 10
	defaultKeyDBPath              string = "smimechain.keydb"
	defaultPolicyFile             string = ""
	defaultRevocationURL          string = ""
	defaultQualifiedListURL       string = ""
	defaultExternalDirectoryURL   string = ""
	defaultSkipRevocation          bool   = false
	defaultNoChainValidation       bool   = false
	defaultNoPolicyCheck           bool   = false
	defaultNoCRLCheck              bool   = false
	defaultNoTrustedCertCRLCheck   bool   = false
	defaultIgnoreExpiration        bool   = false
	defaultAutoIssuerKeyRetrieve   bool   = false
	defaultUseOCSP                 bool   = false
	defaultInteractive             bool   = true
	defaultListMode                bool   = false
	defaultBranding                bool   = false
	defaultDisplayVersionAndExit   bool   = false
	defaultBasic                   bool   = false

	// maxChainDepth mirrors the chain walker's maxdepth value.
	maxChainDepth int = 50
)

const (
	appTypePlugin    string = "plugin"
	appTypeInspecter string = "inspecter"
)
