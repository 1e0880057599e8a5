// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid issues the UUIDv7 identifiers used as primary keys across Shelf.
//
// Version 7 values sort by creation time, so new rows append to the right edge
// of PostgreSQL B-tree indexes.
package uuid

import "github.com/google/uuid"

// New returns a fresh UUIDv7 in canonical string form.
//
// It panics only if the system entropy source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}
