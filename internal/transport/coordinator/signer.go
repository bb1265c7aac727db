package coordinator

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/brightclass/answerhub/internal/domain"
)

// Signer produces detached ed25519 signatures over request payloads.
// The canonical signed message is "service|timestamp|sha256(payload)".
type Signer struct {
	service string
	key     ed25519.PrivateKey
}

// NewSigner builds a signer from a raw ed25519 seed.
func NewSigner(service string, seed []byte) (*Signer, error) {
	if service == "" {
		return nil, fmt.Errorf("service identity is required: %w", domain.ErrSigningKey)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d: %w",
			ed25519.SeedSize, len(seed), domain.ErrSigningKey)
	}
	return &Signer{service: service, key: ed25519.NewKeyFromSeed(seed)}, nil
}

// LoadSigner resolves the signing key from config: an inline base64 seed
// takes precedence, otherwise the key file is read. Missing or malformed
// key material returns domain.ErrSigningKey.
func LoadSigner(service, inlineB64, keyFile string) (*Signer, error) {
	if inlineB64 != "" {
		seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(inlineB64))
		if err != nil {
			return nil, fmt.Errorf("decode inline signing key: %w: %w", domain.ErrSigningKey, err)
		}
		return NewSigner(service, seed)
	}

	if keyFile == "" {
		return nil, fmt.Errorf("no signing key configured: %w", domain.ErrSigningKey)
	}

	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read signing key file %s: %w: %w", keyFile, domain.ErrSigningKey, err)
	}
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode signing key file %s: %w: %w", keyFile, domain.ErrSigningKey, err)
	}
	return NewSigner(service, seed)
}

// Service returns the signing service identity.
func (s *Signer) Service() string { return s.service }

// Sign returns the hex signature over the canonical message for the given
// payload bytes and timestamp.
func (s *Signer) Sign(payload []byte, timestamp string) string {
	digest := sha256.Sum256(payload)
	msg := s.service + "|" + timestamp + "|" + hex.EncodeToString(digest[:])
	return hex.EncodeToString(ed25519.Sign(s.key, []byte(msg)))
}

// PublicKey returns the base64 public key for registration with the Coordinator.
func (s *Signer) PublicKey() string {
	pub := s.key.Public().(ed25519.PublicKey)
	return base64.StdEncoding.EncodeToString(pub)
}
