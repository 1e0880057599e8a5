// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey enumerates the context keys Shelf packages share.
//
// Values are read and written through ctxutil, postgres and access; nothing
// else should call context.WithValue with these keys directly.
package ctxkey

type key uint8

const (
	// KeyRequestID holds the X-Request-ID string.
	KeyRequestID key = iota + 1

	// KeyUser holds the caller's *sec.AuthClaims.
	KeyUser

	// KeyClaimsHolder holds the *ctxutil.ClaimsHolder read by the access log.
	KeyClaimsHolder

	// KeyLogger holds the request-scoped *slog.Logger.
	KeyLogger

	// KeyAccessScope holds the per-request permission memo.
	KeyAccessScope

	// KeyTx holds the open pgx.Tx.
	KeyTx
)

var names = [...]string{
	KeyRequestID:    "request_id",
	KeyUser:         "user",
	KeyClaimsHolder: "claims_holder",
	KeyLogger:       "logger",
	KeyAccessScope:  "access_scope",
	KeyTx:           "tx",
}

// String names the key in %v output.
func (k key) String() string {
	if int(k) < len(names) && names[k] != "" {
		return "ctxkey." + names[k]
	}
	return "ctxkey.unknown"
}
