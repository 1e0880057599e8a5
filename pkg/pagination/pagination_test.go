// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{"", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"?page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"?page=0&limit=1000", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"?page=abc&limit=-1", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := pagination.FromRequest(httptest.NewRequest("GET", "/items"+tt.query, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamsAndMeta(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())

	meta := pagination.NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Zero(t, pagination.NewMeta(1, 0, 5).TotalPages)
}
