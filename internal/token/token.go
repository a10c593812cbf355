// Package token implements the order JWT protocol: compact RS256 tokens
// carrying a minimal vendor descriptor plus the diner and order data.
// Verification needs only the public key and never touches the store.
package token

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pizzafactory/internal/keys"
)

// Issuer is stamped into every order token.
const Issuer = "cs329.click"

// TTL is the fixed token lifetime.
const TTL = 24 * time.Hour

// ErrInvalid is the uniform verification failure. No detail about which
// check failed is ever attached.
var ErrInvalid = errors.New("invalid token")

// VendorClaim is the minimal vendor descriptor embedded in a token; the
// full record never leaves the store.
type VendorClaim struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Issue signs {vendor, diner, order} as a compact JWT. Issued-at, expiry
// and issuer ride in the protected header so the payload round-trips
// exactly as supplied.
func Issue(k *keys.Keys, vendor VendorClaim, diner, order json.RawMessage) (string, error) {
	if k == nil || k.Private == nil {
		return "", errors.New("signing key not loaded")
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"vendor": vendor,
		"diner":  diner,
		"order":  order,
	})
	tok.Header["kid"] = k.KID
	tok.Header["iat"] = now.Unix()
	tok.Header["exp"] = now.Add(TTL).Unix()
	tok.Header["iss"] = Issuer
	return tok.SignedString(k.Private)
}

// Verify checks the signature and structure of a compact token and returns
// the embedded payload. Every failure collapses to ErrInvalid.
func Verify(k *keys.Keys, tokenStr string) (map[string]any, error) {
	if k == nil || k.Public == nil {
		return nil, ErrInvalid
	}
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalid
		}
		return k.Public, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}
	return claims, nil
}
