// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/access/accesstest"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/internal/users/account"
)

func serve(handler http.Handler, actor *access.Actor, method, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != nil {
		claims := &sec.AuthClaims{UserID: actor.UserID, RoleID: actor.RoleID}
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestHandler_Me(t *testing.T) {
	service, _, _ := newService(t)
	router := account.NewHandler(service).Routes()

	assert.Equal(t, http.StatusUnauthorized, serve(router, nil, http.MethodGet, "/", "").Code)

	recorder := serve(router, &member, http.MethodPatch, "/", `{"display_name":"Night Reader"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var body struct {
		Data struct {
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "Night Reader", body.Data.DisplayName)

	assert.Equal(t, http.StatusBadRequest, serve(router, &member, http.MethodPatch, "/", `{`).Code)
}

func TestHandler_AdminUsers(t *testing.T) {
	service, _, _ := newService(t)
	router := account.NewHandler(service).AdminRoutes()

	t.Run("member is forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve(router, &member, http.MethodGet, "/", "").Code)
	})

	t.Run("admin lists", func(t *testing.T) {
		recorder := serve(router, &admin, http.MethodGet, "/?limit=1", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"total":2`)
	})

	t.Run("admin cannot demote self", func(t *testing.T) {
		recorder := serve(router, &admin, http.MethodPut, "/u-admin/role", `{"role_id":"`+accesstest.MemberRoleID+`"}`)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("admin deletes member", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(router, &admin, http.MethodDelete, "/u-member", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(router, &admin, http.MethodGet, "/u-member", "").Code)
	})
}
