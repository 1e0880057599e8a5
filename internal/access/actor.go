// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	requestutil "github.com/taibuivan/yomira-shelf/internal/platform/request"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
)

// Actor is the identity an operation is performed on behalf of.
type Actor struct {
	UserID string
	RoleID string
}

// ActorFromClaims converts verified token claims into an [Actor].
func ActorFromClaims(claims *sec.AuthClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, RoleID: claims.RoleID}
}

// RequiredActor returns the authenticated actor or an UNAUTHORIZED error.
func RequiredActor(request *http.Request) (Actor, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return Actor{}, err
	}
	return ActorFromClaims(claims), nil
}
