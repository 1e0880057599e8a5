// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer builds pointers to literals for optional fields.
package pointer

// To returns a pointer to a copy of value.
func To[T any](value T) *T {
	return &value
}
