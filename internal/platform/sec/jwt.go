// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec holds Shelf's credential primitives: bcrypt password hashes,
opaque refresh tokens and RS256 access tokens.

Access tokens carry the caller's user and role IDs only. Permissions are looked
up per request from the role's current grants, so a revoked grant applies
before the token expires; a role change applies on the next refresh.
*/
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/yomira-shelf/pkg/uuid"
)

// clockSkew tolerated on exp/iat between API replicas.
const clockSkew = 30 * time.Second

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("sec: invalid access token")

// AuthClaims is the access token payload.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"uid"`
	Username string `json:"unm"`
	RoleID   string `json:"rid"`
}

// TokenService signs and verifies access tokens with one RSA key pair.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	parser     *jwt.Parser
}

/*
NewTokenService loads a PEM key pair from disk.

Parameters:
  - privateKeyPath: PKCS#1 or PKCS#8 RSA private key
  - publicKeyPath: PKIX RSA public key
  - issuer: Written to and required in the "iss" claim

Returns:
  - *TokenService: Ready signer/verifier
  - error: Unreadable file or malformed key
*/
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privatePEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read private key: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("sec: parse private key %s: %w", privateKeyPath, err)
	}

	publicPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: read public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("sec: parse public key %s: %w", publicKeyPath, err)
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, issuer), nil
}

// NewTokenServiceFromKeys builds a [TokenService] around keys already in memory.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateAccessToken signs a token for the user that expires after timeToLive.
func (service *TokenService) GenerateAccessToken(userID, username, roleID string, timeToLive time.Duration) (string, error) {
	issuedAt := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Issuer:    service.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
		RoleID:   roleID,
	})

	signed, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: sign access token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the claims of a valid, unexpired token from this issuer.
// Failures wrap [ErrInvalidToken].
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}

	_, err := service.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return claims, nil
}
