// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanPolicyFileMatch(t *testing.T) {
	file := "# comment\n\n1.2.3.4: some policy\n2.3.4.5: another\n"
	matched, err := scanPolicyFile(strings.NewReader(file), []policyEntry{{OID: "2.3.4.5", Critical: true}})
	require.NoError(t, err)
	require.True(t, matched)
}

func TestScanPolicyFileNoMatch(t *testing.T) {
	file := "1.2.3.4: some policy\n"
	matched, err := scanPolicyFile(strings.NewReader(file), []policyEntry{{OID: "9.9.9.9", Critical: true}})
	require.NoError(t, err)
	require.False(t, matched)
}

func TestScanPolicyFileLineTooLong(t *testing.T) {
	longLine := strings.Repeat("a", maxPolicyLineLength+1) + "\n"
	_, err := scanPolicyFile(strings.NewReader(longLine), nil)
	require.ErrorIs(t, err, ErrLineTooLong)
}

func TestScanPolicyFileExactMaxLineLengthAccepted(t *testing.T) {
	line := strings.Repeat("a", maxPolicyLineLength) + "\n"
	_, err := scanPolicyFile(strings.NewReader(line), nil)
	require.NoError(t, err)
}

func TestScanPolicyFileIncompleteLastLine(t *testing.T) {
	file := "1.2.3.4: some policy"
	_, err := scanPolicyFile(strings.NewReader(file), nil)
	require.ErrorIs(t, err, ErrIncompleteLine)
}

func TestScanPolicyFileEmptyConfigurationToken(t *testing.T) {
	file := ":missing-oid\n"
	_, err := scanPolicyFile(strings.NewReader(file), nil)
	require.ErrorIs(t, err, ErrConfiguration)
}
