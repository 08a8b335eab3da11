package sqlstore_test

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-fido2-authenticator/attestation"
	"github.com/splitsecure/go-fido2-authenticator/ctap"
	"github.com/splitsecure/go-fido2-authenticator/secrets"
	"github.com/splitsecure/go-fido2-authenticator/sqlstore"
)

func openStorage(t *testing.T) *sqlstore.Storage {
	t.Helper()
	storage, err := sqlstore.Open(context.Background(), filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, storage.Close()) })
	return storage
}

func newCredential(t *testing.T, rpID ctap.RelyingPartyIdentifier, userHandle ctap.UserHandle) *secrets.PrivateKeyCredentialSource {
	t.Helper()
	credential, err := secrets.GenerateCredential(rand.Reader, ctap.ES256Parameters(), rpID, userHandle)
	require.NoError(t, err)
	return credential
}

func TestPutGetRoundTrip(t *testing.T) {
	storage := openStorage(t)
	ctx := context.Background()

	credential := newCredential(t, "example.com", ctap.UserHandle{0x01})
	require.NoError(t, storage.PutDiscoverable(ctx, credential))

	handle := credential.Handle()
	loaded, err := storage.Get(ctx, &handle)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, credential.ID, loaded.ID)
	require.Equal(t, credential.RPID, loaded.RPID)
	require.Equal(t, credential.UserHandle, loaded.UserHandle)
	require.Equal(t, credential.PrivateKeyDER, loaded.PrivateKeyDER)
	require.Equal(t, credential.SignCount, loaded.SignCount)
}

func TestGetUnknown(t *testing.T) {
	storage := openStorage(t)

	handle := ctap.CredentialHandle{
		Descriptor: ctap.PublicKeyCredentialDescriptor{
			Type: ctap.PublicKey,
			ID:   ctap.CredentialID{0xde, 0xad},
		},
	}
	loaded, err := storage.Get(context.Background(), &handle)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestPutOverwritesOnID(t *testing.T) {
	storage := openStorage(t)
	ctx := context.Background()

	credential := newCredential(t, "example.com", ctap.UserHandle{0x01})
	require.NoError(t, storage.PutDiscoverable(ctx, credential))

	credential.SignCount = 41
	require.NoError(t, storage.PutDiscoverable(ctx, credential))

	handle := credential.Handle()
	loaded, err := storage.Get(ctx, &handle)
	require.NoError(t, err)
	require.Equal(t, uint32(41), loaded.SignCount)

	handles, err := storage.ListDiscoverable(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, handles, 1)
}

func TestListDiscoverableFiltersByRelyingParty(t *testing.T) {
	storage := openStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.PutDiscoverable(ctx, newCredential(t, "example.com", ctap.UserHandle{0x01})))
	require.NoError(t, storage.PutDiscoverable(ctx, newCredential(t, "example.com", ctap.UserHandle{0x02})))
	require.NoError(t, storage.PutDiscoverable(ctx, newCredential(t, "other.example", ctap.UserHandle{0x03})))

	handles, err := storage.ListDiscoverable(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, handles, 2)
	for _, handle := range handles {
		require.Equal(t, ctap.RelyingPartyIdentifier("example.com"), handle.RPID)
	}
}

func TestListSpecified(t *testing.T) {
	storage := openStorage(t)
	ctx := context.Background()

	kept := newCredential(t, "example.com", ctap.UserHandle{0x01})
	require.NoError(t, storage.PutDiscoverable(ctx, kept))
	require.NoError(t, storage.PutDiscoverable(ctx, newCredential(t, "example.com", ctap.UserHandle{0x02})))

	handles, err := storage.ListSpecified(ctx, "example.com", []ctap.PublicKeyCredentialDescriptor{
		kept.Descriptor(),
		{Type: ctap.PublicKey, ID: ctap.CredentialID{0xff}},
	})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	require.Equal(t, kept.ID, handles[0].Descriptor.ID)
}

// The sql-backed store satisfies the same engine contract as the in-memory
// one: a full make-then-attest sequence works against it unchanged, and the
// incremented signature counter survives in the database.
func TestEngineIntegration(t *testing.T) {
	storage := openStorage(t)
	ctx := context.Background()

	source, err := attestation.Generate("test authenticator")
	require.NoError(t, err)
	engine := secrets.NewSoftwareCryptoStore(storage, uuid.MustParse("f8a011f3-8c0a-4d15-8006-17111f9edc7d"), source)

	handle, err := engine.MakeCredential(ctx, ctap.ES256Parameters(), "example.com", ctap.UserHandle{0x01})
	require.NoError(t, err)

	hash := sha256.Sum256([]byte("client data"))
	_, _, err = engine.Attest(ctx, "example.com", handle, hash[:], true, false)
	require.NoError(t, err)

	loaded, err := storage.Get(ctx, handle)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, uint32(1), loaded.SignCount)
}
