// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

// Package net provides helper functions for network related operations such
// as retrieving the certificate chain presented by a TLS service.
package net
