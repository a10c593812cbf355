// Package keys loads the RSA signing pair used for order JWTs and serves
// the public half as a JWKS document for third-party verification.
package keys

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Keys holds the loaded pair. The zero value is unusable; Load must
// succeed before any signing or key-set request is served.
type Keys struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
	KID     string
	jwks    JWKS
}

// Load reads both PEM files and derives the JWKS document. Any parse or
// read failure is returned so the caller can treat it as fatal.
func Load(privatePath, publicPath string) (*Keys, error) {
	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return FromPair(priv, pub)
}

// FromPair builds a Keys from an already-parsed pair.
func FromPair(priv *rsa.PrivateKey, pub *rsa.PublicKey) (*Keys, error) {
	kid, err := keyID(pub)
	if err != nil {
		return nil, err
	}
	k := &Keys{Private: priv, Public: pub, KID: kid}
	k.jwks = JWKS{Keys: []JWK{{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	return k, nil
}

// JWKS returns the public key-set document.
func (k *Keys) JWKS() JWKS {
	return k.jwks
}

// keyID is the base64url SHA-256 of the DER-encoded public key, the same
// derivation most JWKS producers use for a stable kid.
func keyID(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
