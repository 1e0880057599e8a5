// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account registration, login and refresh sessions.

Every account holds exactly one role. Registration hands out the default
role; what that role may do is answered by the access package, never here.

Sessions:

  - Access: a short-lived RS256 JWT carrying the user and role IDs.
  - Refresh: an opaque random token stored hashed in users.session and rotated on every use.
  - Throttle: repeated wrong passwords for one login lock it for a cooling period.
*/
package auth

import "time"

// # Domain Entities

// RoleRef is the summary of a user's role embedded in account payloads.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	RoleID       string    `json:"-"`
	Role         *RoleRef  `json:"role,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is one refresh-token grant.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	UserAgent string
	IPAddress string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Issued is the credential pair handed to a client after login or refresh.
type Issued struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *User
}

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
