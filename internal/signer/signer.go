// Package signer provides asymmetric signing for verification links.
//
// Each service instance generates its own RSA keypair at startup. The
// private key lives only in process memory and is never serialized, so
// a restart invalidates every link issued before the restart. That is a
// deliberate tradeoff: links are meant to be clicked promptly, and an
// ephemeral key removes any need to manage persistent signing secrets.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// Signer signs opaque payload strings and verifies signed tokens.
type Signer struct {
	key    *rsa.PrivateKey
	pubDER []byte
}

// New generates a fresh RSA-2048 keypair for this process lifetime.
func New() (*Signer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	return &Signer{key: key, pubDER: pubDER}, nil
}

// Sign returns payload + "." + base64(signature over the payload bytes).
// RSASSA-PKCS1v1.5 with SHA-256 is deterministic, so identical payloads
// produce identical tokens; payloads embed a timestamp which keeps tokens
// unique in practice.
func (s *Signer) Sign(payload string) (string, error) {
	digest := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", err)
	}
	return payload + "." + base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a token of the form "payload.signature" against the given
// PKIX-encoded public key. It fails closed: a malformed token, an
// undecodable signature, an unparsable key, and a failed cryptographic
// check are all indistinguishable and simply return false.
func Verify(token string, publicKey []byte) bool {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return false
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	parsed, err := x509.ParsePKIXPublicKey(publicKey)
	if err != nil {
		return false
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return false
	}
	digest := sha256.Sum256([]byte(payload))
	return rsa.VerifyPKCS1v15(rsaKey, crypto.SHA256, digest[:], sigBytes) == nil
}

// PublicKey returns the verification key in PKIX/DER form so the request
// and verify paths share one key without re-deriving it.
func (s *Signer) PublicKey() []byte {
	out := make([]byte, len(s.pubDER))
	copy(out, s.pubDER)
	return out
}
