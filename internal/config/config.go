// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Updated via Makefile builds. Setting placeholder value here so that
// something resembling a version string will be provided for non-Makefile
// builds.
var version string = "x.y.z"

// ErrVersionRequested indicates that the user requested application version
// information.
var ErrVersionRequested = errors.New("version information requested")

// ErrUnsupportedOption indicates that an unsupported combination of flags
// was provided.
var ErrUnsupportedOption = errors.New("unsupported option")

// AppType represents the type of application that is being
// configured/initialized. Not all application types will use the same
// features and as a result will not accept the same flags.
type AppType struct {

	// Plugin represents an application used as a Nagios plugin. Interactive
	// trust prompts are disabled for this application type.
	Plugin bool

	// Inspecter represents an application used for one-off or isolated
	// checks, intended for examining a single certificate chain for
	// informational/troubleshooting purposes. Interactive trust prompts are
	// permitted for this application type.
	Inspecter bool
}

// Config represents the application configuration as specified via
// command-line flags.
type Config struct {

	// Filename is the fully-qualified path to a file containing the leaf
	// certificate (and optionally additional certificates) to validate.
	Filename string

	// Server is the fully-qualified domain name of the system running a
	// certificate-enabled service from which the leaf certificate chain is
	// retrieved.
	Server string

	// Port is the TCP port used by the certificate-enabled service.
	Port int

	// KeyDBPath is the path to the bbolt-backed key database file.
	KeyDBPath string

	// PolicyFile is the path to the issuer-policy allowlist file consulted
	// by the policy gate. Empty disables the check's file-based path.
	PolicyFile string

	// RevocationURL is the endpoint queried by the default revocation
	// responder collaborator. Empty leaves the revocation gate unwired, so
	// it is skipped (same as if no revocation responder were configured).
	RevocationURL string

	// QualifiedListURL is the endpoint queried by the default
	// qualified-signature classifier collaborator. Empty disables the
	// qualified-signature classification and the RegTP legacy-CA rescue,
	// both of which depend on it.
	QualifiedListURL string

	// ExternalDirectoryURL is the endpoint queried by the issuer resolver's
	// external-directory collaborator when AutoIssuerKeyRetrieve is set.
	// Empty leaves those search strategies unable to find an issuer outside
	// the key database.
	ExternalDirectoryURL string

	// LoggingLevel is the supported logging level for this application.
	LoggingLevel string

	// SkipRevocation disables the revocation gate entirely for this run.
	SkipRevocation bool

	// NoChainValidation disables chain inspection entirely outside list
	// mode.
	NoChainValidation bool

	// NoPolicyCheck disables the policy gate for every node.
	NoPolicyCheck bool

	// NoCRLCheck globally disables CRL-backed revocation checking.
	NoCRLCheck bool

	// NoTrustedCertCRLCheck skips the revocation gate for a trusted root
	// specifically.
	NoTrustedCertCRLCheck bool

	// IgnoreExpiration downgrades an expired certificate to a logged
	// warning instead of the any_expired soft flag.
	IgnoreExpiration bool

	// AutoIssuerKeyRetrieve permits the issuer resolver to consult the
	// external directory collaborator.
	AutoIssuerKeyRetrieve bool

	// UseOCSP requests OCSP-flavored revocation responses from the
	// revocation responder collaborator instead of CRL-flavored ones.
	UseOCSP bool

	// Interactive permits the trust-agent collaborator to prompt on an
	// unknown root. Always false for AppType.Plugin regardless of flag
	// value.
	Interactive bool

	// ListMode renders each failure as a bracketed diagnostic line on the
	// provided sink instead of logging it.
	ListMode bool

	// Basic selects the single-hop basic checker instead of the full chain
	// walker.
	Basic bool

	// timeout is the number of seconds allowed before the connection
	// attempt to a remote certificate-enabled service is abandoned.
	timeout int

	// EmitBranding controls whether "generated by" text is included at the
	// bottom of application output.
	EmitBranding bool

	// ShowVersion is a flag indicating whether the user opted to display
	// only the version string and then immediately exit the application.
	ShowVersion bool

	// Log is an embedded zerolog Logger initialized via config.New().
	Log zerolog.Logger
}

// Timeout converts the user-specified connection timeout value in seconds
// to an appropriate time.Duration for use with setting net.Dial timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.timeout) * time.Second
}

// Usage is a custom override for the default Help text provided by the flag
// package. Here we prepend some additional metadata to the existing output.
var Usage = func() {
	fmt.Fprintln(flag.CommandLine.Output(), "\n"+Version()+"\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
	flag.PrintDefaults()
}

// Version emits application name, version and repo location.
func Version() string {
	return fmt.Sprintf("%s %s (%s)", myAppName, version, myAppURL)
}

// Branding accepts a message and returns a function that concatenates that
// message with version information. This function is intended to be called
// as a final step before application exit after any other output has
// already been emitted.
func Branding(msg string) func() string {
	return func() string {
		return strings.Join([]string{msg, Version()}, "")
	}
}

// New is a factory function that produces a new Config object based on user
// provided flag values. It is responsible for validating user-provided
// values and initializing the logging settings used by this application.
func New(appType AppType) (*Config, error) {
	var config Config

	config.handleFlagsConfig(appType)

	if config.ShowVersion {
		return nil, ErrVersionRequested
	}

	if err := config.validate(appType); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := config.setupLogging(appType); err != nil {
		return nil, fmt.Errorf(
			"failed to set logging configuration: %w",
			err,
		)
	}

	return &config, nil
}

// handleFlagsConfig defines and parses all command-line flags supported by
// this application, subject to the given AppType.
func (c *Config) handleFlagsConfig(appType AppType) {

	switch {
	case appType.Plugin:
		flag.BoolVar(&c.EmitBranding, BrandingFlag, defaultBranding, brandingFlagHelp)

	case appType.Inspecter:
		flag.BoolVar(&c.Interactive, InteractiveFlagLong, defaultInteractive, interactiveFlagHelp)
		flag.BoolVar(&c.Basic, BasicFlagLong, defaultBasic, basicFlagHelp)
	}

	flag.StringVar(&c.Filename, FilenameFlagLong, defaultFilename, filenameFlagHelp)

	flag.StringVar(&c.Server, ServerFlagLong, defaultServer, serverFlagHelp)
	flag.StringVar(&c.Server, ServerFlagShort, defaultServer, serverFlagHelp+shorthandFlagSuffix)

	flag.IntVar(&c.Port, PortFlagLong, defaultPort, portFlagHelp)
	flag.IntVar(&c.Port, PortFlagShort, defaultPort, portFlagHelp+shorthandFlagSuffix)

	flag.IntVar(&c.timeout, TimeoutFlagLong, defaultTimeout, timeoutFlagHelp)
	flag.IntVar(&c.timeout, TimeoutFlagShort, defaultTimeout, timeoutFlagHelp+shorthandFlagSuffix)

	flag.StringVar(&c.LoggingLevel, LogLevelFlagLong, defaultLogLevel, logLevelFlagHelp)
	flag.StringVar(&c.LoggingLevel, LogLevelFlagShort, defaultLogLevel, logLevelFlagHelp+shorthandFlagSuffix)

	flag.StringVar(&c.KeyDBPath, KeyDBFlagLong, defaultKeyDBPath, keyDBFlagHelp)
	flag.StringVar(&c.PolicyFile, PolicyFileFlagLong, defaultPolicyFile, policyFileFlagHelp)

	flag.StringVar(&c.RevocationURL, RevocationURLFlagLong, defaultRevocationURL, revocationURLFlagHelp)
	flag.StringVar(&c.QualifiedListURL, QualifiedListURLFlagLong, defaultQualifiedListURL, qualifiedListURLFlagHelp)
	flag.StringVar(&c.ExternalDirectoryURL, ExternalDirectoryURLFlagLong, defaultExternalDirectoryURL, externalDirectoryURLFlagHelp)

	flag.BoolVar(&c.SkipRevocation, SkipRevocationFlagLong, defaultSkipRevocation, skipRevocationFlagHelp)
	flag.BoolVar(&c.NoChainValidation, NoChainValidationFlagLong, defaultNoChainValidation, noChainValidationFlagHelp)
	flag.BoolVar(&c.NoPolicyCheck, NoPolicyCheckFlagLong, defaultNoPolicyCheck, noPolicyCheckFlagHelp)
	flag.BoolVar(&c.NoCRLCheck, NoCRLCheckFlagLong, defaultNoCRLCheck, noCRLCheckFlagHelp)
	flag.BoolVar(&c.NoTrustedCertCRLCheck, NoTrustedCertCRLCheckFlagLong, defaultNoTrustedCertCRLCheck, noTrustedCertCRLCheckFlagHelp)
	flag.BoolVar(&c.IgnoreExpiration, IgnoreExpirationFlagLong, defaultIgnoreExpiration, ignoreExpirationFlagHelp)
	flag.BoolVar(&c.AutoIssuerKeyRetrieve, AutoIssuerKeyRetrieveFlagLong, defaultAutoIssuerKeyRetrieve, autoIssuerKeyRetrieveFlagHelp)
	flag.BoolVar(&c.UseOCSP, UseOCSPFlagLong, defaultUseOCSP, useOCSPFlagHelp)
	flag.BoolVar(&c.ListMode, ListModeFlagLong, defaultListMode, listModeFlagHelp)

	flag.BoolVar(&c.ShowVersion, VersionFlagLong, defaultDisplayVersionAndExit, versionFlagHelp)
	flag.BoolVar(&c.ShowVersion, VersionFlagShort, defaultDisplayVersionAndExit, versionFlagHelp+shorthandFlagSuffix)

	flag.Usage = Usage
	flag.Parse()
}

// shorthandFlagSuffix is appended to short flag help text to emphasize that
// the flag is a shorthand version of a longer flag.
const shorthandFlagSuffix = " (shorthand)"

// validate verifies all Config struct fields have been provided acceptable
// values.
func (c Config) validate(appType AppType) error {
	switch {
	case c.Filename == "" && c.Server == "":
		return fmt.Errorf("one of %q or %q flags must be specified", ServerFlagLong, FilenameFlagLong)
	case c.Filename != "" && c.Server != "":
		return fmt.Errorf("only one of %q or %q flags may be specified: %w", ServerFlagLong, FilenameFlagLong, ErrUnsupportedOption)
	}

	if c.KeyDBPath == "" {
		return fmt.Errorf("key database path may not be empty")
	}

	if c.timeout < 1 {
		return fmt.Errorf("invalid timeout value provided: %d", c.timeout)
	}

	if appType.Plugin && c.Interactive {
		return fmt.Errorf("interactive trust prompts are not supported in plugin mode: %w", ErrUnsupportedOption)
	}

	return nil
}
