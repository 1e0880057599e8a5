// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pagination turns "page" and "limit" query parameters into SQL
LIMIT/OFFSET values and describes the result in the response envelope.

Pages are 1-indexed. Anything unparsable or out of range falls back to the
defaults instead of failing the request.
*/
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a clamped page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip.
func (params Params) Offset() int {
	return max(params.Page-1, 0) * params.Limit
}

// Meta accompanies list payloads as the envelope's "meta" object.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta derives TotalPages from total and limit.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	return meta
}

// FromRequest reads and clamps the page parameters of r.
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()

	params := Params{Page: DefaultPage, Limit: DefaultLimit}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page >= 1 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit >= 1 && limit <= MaxLimit {
		params.Limit = limit
	}

	return params
}
