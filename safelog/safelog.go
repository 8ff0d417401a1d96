// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package safelog is a thin convention layer over log/slog: a single
// injected *slog.Logger per safefiles.Client (as the gateway's
// ReverseProxy takes one), plus a nil-safe default so construction never
// requires a logger to be supplied.
package safelog

import (
	"io"
	"log/slog"
)

// Nop returns a logger that discards everything, used when a caller
// constructs a Client without WithLogger.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Verb logs the start of a public API verb at debug level.
func Verb(logger *slog.Logger, verb string, args ...any) {
	logger.Debug("[safefiles] "+verb, args...)
}

// VerbError logs a verb's failure at error level.
func VerbError(logger *slog.Logger, verb string, err error, args ...any) {
	logger.Error("[safefiles] "+verb+" failed", append([]any{"error", err}, args...)...)
}
