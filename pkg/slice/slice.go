// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds generic helpers the standard [slices] package lacks.
package slice

// Map applies transform to every element. A nil input stays nil.
func Map[T, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	mapped := make([]U, 0, len(input))
	for _, item := range input {
		mapped = append(mapped, transform(item))
	}
	return mapped
}
