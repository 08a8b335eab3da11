// Package secrets implements the credential engine: key generation,
// attestation and assertion signing, and the storage abstraction that holds
// private credential records. Callers above this package only ever see
// credential handles and signed outputs, never key material.
package secrets

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"io"
	"time"

	"github.com/ldclabs/cose/iana"
	cose_key "github.com/ldclabs/cose/key"
	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

const credentialIDLen = 32

// PrivateKeyCredentialSource is the durable credential record. Once persisted
// it is owned by the storage backend; the engine only holds a transient copy
// while generating or signing.
type PrivateKeyCredentialSource struct {
	Type          ctap.PublicKeyCredentialType
	Alg           ctap.COSEAlgorithmIdentifier
	ID            ctap.CredentialID
	RPID          ctap.RelyingPartyIdentifier
	UserHandle    ctap.UserHandle
	PrivateKeyDER []byte
	SignCount     uint32
	CreatedAt     time.Time
}

// GenerateCredential creates a fresh credential bound to (params, rpID,
// userHandle). Every call produces independent key material and a new unique
// credential id, even for identical inputs.
func GenerateCredential(
	rand io.Reader,
	params ctap.PublicKeyCredentialParameters,
	rpID ctap.RelyingPartyIdentifier,
	userHandle ctap.UserHandle,
) (*PrivateKeyCredentialSource, error) {
	if params.Alg != ctap.AlgES256 {
		return nil, errors.WithMessagef(ctap.ErrUnsupportedAlgorithm, "alg %d", params.Alg)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand)
	if err != nil {
		return nil, errors.Wrap(err, "generating credential key")
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "encoding credential key")
	}

	id := make([]byte, credentialIDLen)
	if _, err := io.ReadFull(rand, id); err != nil {
		return nil, errors.Wrap(err, "generating credential id")
	}

	return &PrivateKeyCredentialSource{
		Type:          params.Type,
		Alg:           params.Alg,
		ID:            id,
		RPID:          rpID,
		UserHandle:    userHandle,
		PrivateKeyDER: keyDER,
		CreatedAt:     time.Now(),
	}, nil
}

func (c *PrivateKeyCredentialSource) Descriptor() ctap.PublicKeyCredentialDescriptor {
	return ctap.PublicKeyCredentialDescriptor{
		Type: c.Type,
		ID:   c.ID,
	}
}

func (c *PrivateKeyCredentialSource) Handle() ctap.CredentialHandle {
	return ctap.CredentialHandle{
		Descriptor: c.Descriptor(),
		RPID:       c.RPID,
		UserHandle: c.UserHandle,
		CreatedAt:  c.CreatedAt,
	}
}

// SigningView derives the signing-capable view of the record. The view lives
// only for the duration of one operation and is never persisted.
func (c *PrivateKeyCredentialSource) SigningView() (*PublicKeyCredentialSource, error) {
	key, err := x509.ParseECPrivateKey(c.PrivateKeyDER)
	if err != nil {
		return nil, errors.Wrap(err, "decoding credential key")
	}
	return &PublicKeyCredentialSource{
		alg: c.Alg,
		key: key,
	}, nil
}

// PublicKeyCredentialSource is the signing view of a stored credential.
type PublicKeyCredentialSource struct {
	alg ctap.COSEAlgorithmIdentifier
	key *ecdsa.PrivateKey
}

func (v *PublicKeyCredentialSource) Alg() ctap.COSEAlgorithmIdentifier {
	return v.alg
}

// Sign produces the assertion signature over authData || clientDataHash
// with the credential's own key.
func (v *PublicKeyCredentialSource) Sign(rand io.Reader, authData, clientDataHash []byte) ([]byte, error) {
	digest := sha256Concat(authData, clientDataHash)
	sig, err := ecdsa.SignASN1(rand, v.key, digest)
	if err != nil {
		return nil, errors.Wrap(err, "signing assertion")
	}
	return sig, nil
}

// CredentialPublicKey returns the public key as a COSE_Key for embedding in
// attested credential data.
func (v *PublicKeyCredentialSource) CredentialPublicKey() cose_key.Key {
	size := (v.key.Curve.Params().BitSize + 7) / 8
	return cose_key.Key{
		iana.KeyParameterKty:    iana.KeyTypeEC2,
		iana.KeyParameterAlg:    iana.AlgorithmES256,
		iana.EC2KeyParameterCrv: iana.EllipticCurveP_256,
		iana.EC2KeyParameterX:   v.key.PublicKey.X.FillBytes(make([]byte, size)),
		iana.EC2KeyParameterY:   v.key.PublicKey.Y.FillBytes(make([]byte, size)),
	}
}
