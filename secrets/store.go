package secrets

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/attestation"
	"github.com/splitsecure/go-fido2-authenticator/authenticatordata"
	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// ErrCredentialNotFound is returned when a credential handle does not
// reference any stored record. Distinct from storage backend failures.
var ErrCredentialNotFound = errors.New("secrets: credential not found")

// SoftwareCryptoStore realizes the authenticator's secret store with software
// keys. A single lock guards storage, attestation key and randomness source
// as one unit, so generation, persistence and signing are observed as atomic
// by concurrent callers.
type SoftwareCryptoStore struct {
	mu sync.Mutex
	data
}

type data struct {
	aaguid      uuid.UUID
	rand        io.Reader
	store       CredentialStorage
	attestation *attestation.Source
}

func NewSoftwareCryptoStore(store CredentialStorage, aaguid uuid.UUID, source *attestation.Source) *SoftwareCryptoStore {
	return &SoftwareCryptoStore{
		data: data{
			aaguid:      aaguid,
			rand:        rand.Reader,
			store:       store,
			attestation: source,
		},
	}
}

// MakeCredential generates a new credential bound to (params, rpID,
// userHandle), persists it as discoverable and returns its handle. Key
// generation failure is fatal to the call, not retried.
func (s *SoftwareCryptoStore) MakeCredential(
	ctx context.Context,
	params ctap.PublicKeyCredentialParameters,
	rpID ctap.RelyingPartyIdentifier,
	userHandle ctap.UserHandle,
) (*ctap.CredentialHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := GenerateCredential(s.rand, params, rpID, userHandle)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutDiscoverable(ctx, credential); err != nil {
		return nil, errors.Wrap(err, "persisting credential")
	}

	handle := credential.Handle()
	return &handle, nil
}

// Attest builds authenticator data carrying the attested credential block and
// signs it together with the client data hash using the authenticator's own
// attestation key (full/"basic" attestation, not self-attestation). It
// returns the serialized authenticator data and the packed statement.
func (s *SoftwareCryptoStore) Attest(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
	handle *ctap.CredentialHandle,
	clientDataHash []byte,
	userPresent bool,
	userVerified bool,
) ([]byte, ctap.PackedAttestationStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, view, err := s.lookup(ctx, handle)
	if err != nil {
		return nil, ctap.PackedAttestationStatement{}, err
	}

	signCount, err := s.bumpSignCount(ctx, credential)
	if err != nil {
		return nil, ctap.PackedAttestationStatement{}, err
	}

	rpHash := sha256.Sum256([]byte(rpID))
	authData := authenticatordata.T{
		RelyingPartyHash: rpHash[:],
		Flags:            authenticatordata.FlagsFor(userPresent, userVerified, true),
		SignCount:        signCount,
		AttestedCredentialData: authenticatordata.AttestedCredentialData{
			AAGUID:              s.aaguid,
			CredentialID:        credential.ID,
			CredentialPublicKey: view.CredentialPublicKey(),
		},
	}
	adb, err := authenticatordata.Marshal(&authData)
	if err != nil {
		return nil, ctap.PackedAttestationStatement{}, err
	}

	sig, err := s.attestation.Sign(s.rand, adb, clientDataHash)
	if err != nil {
		return nil, ctap.PackedAttestationStatement{}, err
	}

	return adb, ctap.PackedAttestationStatement{
		Alg: view.Alg(),
		Sig: sig,
		X5C: s.attestation.CertificateChain(),
	}, nil
}

// Assert builds attested-credential-free authenticator data and signs it
// together with the client data hash using the credential's own key. The
// missing attested block and the choice of key are what distinguish an
// assertion from an attestation.
func (s *SoftwareCryptoStore) Assert(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
	handle *ctap.CredentialHandle,
	clientDataHash []byte,
	userPresent bool,
	userVerified bool,
) ([]byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, view, err := s.lookup(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	signCount, err := s.bumpSignCount(ctx, credential)
	if err != nil {
		return nil, nil, err
	}

	rpHash := sha256.Sum256([]byte(rpID))
	authData := authenticatordata.T{
		RelyingPartyHash: rpHash[:],
		Flags:            authenticatordata.FlagsFor(userPresent, userVerified, false),
		SignCount:        signCount,
	}
	adb, err := authenticatordata.Marshal(&authData)
	if err != nil {
		return nil, nil, err
	}

	sig, err := view.Sign(s.rand, adb, clientDataHash)
	if err != nil {
		return nil, nil, err
	}
	return adb, sig, nil
}

func (s *SoftwareCryptoStore) ListDiscoverableCredentials(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
) ([]ctap.CredentialHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListDiscoverable(ctx, rpID)
}

func (s *SoftwareCryptoStore) ListSpecifiedCredentials(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
	credentialList []ctap.PublicKeyCredentialDescriptor,
) ([]ctap.CredentialHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListSpecified(ctx, rpID, credentialList)
}

// lookup loads the record behind a handle and derives its signing view.
// Callers must hold the lock.
func (s *SoftwareCryptoStore) lookup(ctx context.Context, handle *ctap.CredentialHandle) (*PrivateKeyCredentialSource, *PublicKeyCredentialSource, error) {
	credential, err := s.store.Get(ctx, handle)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading credential")
	}
	if credential == nil {
		return nil, nil, errors.WithMessage(ErrCredentialNotFound, hex.EncodeToString(handle.Descriptor.ID))
	}
	view, err := credential.SigningView()
	if err != nil {
		return nil, nil, err
	}
	return credential, view, nil
}

// bumpSignCount increments the persisted signature counter and returns the
// value to report. Runs inside the same critical section as the signature
// that carries it, keeping the counter monotonic per credential.
func (s *SoftwareCryptoStore) bumpSignCount(ctx context.Context, credential *PrivateKeyCredentialSource) (uint32, error) {
	credential.SignCount++
	if err := s.store.PutDiscoverable(ctx, credential); err != nil {
		return 0, errors.Wrap(err, "persisting signature counter")
	}
	return credential.SignCount, nil
}

func sha256Concat(authData, clientDataHash []byte) []byte {
	digest := sha256.New()
	digest.Write(authData)
	digest.Write(clientDataHash)
	return digest.Sum(nil)
}
