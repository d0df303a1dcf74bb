package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs and verifies session tokens with an EdDSA (Ed25519) key.
// Keys are ephemeral: generated at startup and never persisted, so a
// restart invalidates outstanding sessions and users re-authenticate.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner generates a fresh Ed25519 keypair.
func NewSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// Ready reports whether the signer has key material loaded.
func (s *Signer) Ready() bool {
	return s != nil && len(s.priv) == ed25519.PrivateKeySize
}

// Sign produces a compact JWS for the claims.
func (s *Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)
	return token.SignedString(s.priv)
}

// Verify parses and validates a compact JWS, returning its claims.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.pub, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("jwtx: invalid token")
	}
	return claims, nil
}

// Verifier validates a raw session token and returns its claims.
// *Signer satisfies this; middleware should depend on the interface.
type Verifier interface {
	Verify(raw string) (Claims, error)
}
