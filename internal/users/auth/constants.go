// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

const (
	// AccessTokenTTL also bounds how long a role change takes to reach a signed-in user.
	AccessTokenTTL = 15 * time.Minute

	RefreshTokenTTL    = 30 * 24 * time.Hour
	RefreshTokenLength = 32

	UsernameMinLength    = 3
	UsernameMaxLength    = 50
	DisplayNameMaxLength = 50
	PasswordMinLength    = 8

	// MaxLoginFailures wrong passwords within LoginLockout lock the login.
	MaxLoginFailures = 5
	LoginLockout     = 15 * time.Minute
)
