// Package attestation holds the authenticator's own long-lived identity: an
// ECDSA signing key and its certificate. Every attestation statement this
// authenticator emits is signed by this key ("basic" attestation), never by
// the credential being attested.
package attestation

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type Source struct {
	key      *ecdsa.PrivateKey
	certDER  []byte
	chainDER [][]byte
}

// NewSource wraps an existing key and certificate. chainDER optionally holds
// intermediate certificates, closest to the leaf first.
func NewSource(key *ecdsa.PrivateKey, certDER []byte, chainDER ...[]byte) *Source {
	return &Source{
		key:      key,
		certDER:  certDER,
		chainDER: chainDER,
	}
}

// Sign produces the attestation signature over authData || clientDataHash:
// an ASN.1 ECDSA signature of the SHA-256 digest of the concatenation.
func (s *Source) Sign(rand io.Reader, authData, clientDataHash []byte) ([]byte, error) {
	digest := sha256.New()
	digest.Write(authData)
	digest.Write(clientDataHash)

	sig, err := ecdsa.SignASN1(rand, s.key, digest.Sum(nil))
	if err != nil {
		return nil, errors.Wrap(err, "signing attestation")
	}
	return sig, nil
}

// CertificateChain returns the certificate chain in x5c order, leaf first.
func (s *Source) CertificateChain() [][]byte {
	chain := make([][]byte, 1+len(s.chainDER))
	chain[0] = s.certDER
	copy(chain[1:], s.chainDER)
	return chain
}

// Certificate parses and returns the leaf certificate.
func (s *Source) Certificate() (*x509.Certificate, error) {
	return x509.ParseCertificate(s.certDER)
}

// PublicKey returns the public half of the attestation key.
func (s *Source) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}

// LoadPEM builds a Source from PEM-encoded certificate and EC private key
// documents.
func LoadPEM(certPEM, keyPEM []byte) (*Source, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, errors.New("no CERTIFICATE block in certificate PEM")
	}
	if _, err := x509.ParseCertificate(certBlock.Bytes); err != nil {
		return nil, errors.Wrap(err, "parsing attestation certificate")
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		return nil, errors.New("no EC PRIVATE KEY block in key PEM")
	}
	key, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing attestation key")
	}

	return NewSource(key, certBlock.Bytes), nil
}

// DumpToDir writes the identity as attestation.crt / attestation.key PEM
// files under p, creating the directory if needed.
func (s *Source) DumpToDir(p string) error {
	err := os.MkdirAll(p, 0700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}

	blk := pem.Block{
		Bytes: s.certDER,
		Type:  "CERTIFICATE",
	}
	if err := os.WriteFile(filepath.Join(p, "attestation.crt"), pem.EncodeToMemory(&blk), 0644); err != nil {
		return err
	}

	keybuf, err := x509.MarshalECPrivateKey(s.key)
	if err != nil {
		return err
	}
	blk = pem.Block{
		Bytes: keybuf,
		Type:  "EC PRIVATE KEY",
	}
	return os.WriteFile(filepath.Join(p, "attestation.key"), pem.EncodeToMemory(&blk), 0600)
}
