package attestation_test

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-fido2-authenticator/attestation"
)

func TestGenerateAndSign(t *testing.T) {
	source, err := attestation.Generate("test authenticator")
	require.NoError(t, err)

	authData := []byte("authenticator data bytes")
	clientDataHash := sha256.Sum256([]byte("client data"))

	sig, err := source.Sign(rand.Reader, authData, clientDataHash[:])
	require.NoError(t, err)

	cert, err := source.Certificate()
	require.NoError(t, err)

	digest := sha256.New()
	digest.Write(authData)
	digest.Write(clientDataHash[:])
	require.True(t, ecdsa.VerifyASN1(cert.PublicKey.(*ecdsa.PublicKey), digest.Sum(nil), sig))
}

func TestCertificateChainLeafFirst(t *testing.T) {
	source, err := attestation.Generate("test authenticator")
	require.NoError(t, err)

	chain := source.CertificateChain()
	require.Len(t, chain, 1)

	cert, err := source.Certificate()
	require.NoError(t, err)
	require.Equal(t, cert.Raw, chain[0])
}

func TestPEMRoundTrip(t *testing.T) {
	source, err := attestation.Generate("test authenticator")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, source.DumpToDir(filepath.Join(dir, "identity")))

	certPEM, err := os.ReadFile(filepath.Join(dir, "identity", "attestation.crt"))
	require.NoError(t, err)
	keyPEM, err := os.ReadFile(filepath.Join(dir, "identity", "attestation.key"))
	require.NoError(t, err)

	loaded, err := attestation.LoadPEM(certPEM, keyPEM)
	require.NoError(t, err)

	require.Equal(t, source.PublicKey(), loaded.PublicKey())
	require.Equal(t, source.CertificateChain(), loaded.CertificateChain())
}

func TestLoadPEMRejectsGarbage(t *testing.T) {
	_, err := attestation.LoadPEM([]byte("not pem"), []byte("not pem"))
	require.Error(t, err)
}
