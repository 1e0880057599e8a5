// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued query string parameters.
package query

import "strings"

// StringSlice splits a comma-separated value, trimming entries and dropping
// empty ones. "a, ,b" yields [a b]; "" yields nil.
func StringSlice(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if value := strings.TrimSpace(part); value != "" {
			values = append(values, value)
		}
	}
	return values
}
