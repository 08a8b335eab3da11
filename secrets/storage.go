package secrets

import (
	"context"
	"sort"
	"sync"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// CredentialStorage persists private credential records. Implementations
// perform no cryptography. PutDiscoverable is idempotent on credential id:
// re-putting the same id overwrites the record, and a later record for the
// same (relying party, user handle) pair supersedes the earlier one in
// discoverable lookup.
type CredentialStorage interface {
	PutDiscoverable(ctx context.Context, credential *PrivateKeyCredentialSource) error

	// Get returns the record referenced by the handle, or nil when unknown.
	Get(ctx context.Context, handle *ctap.CredentialHandle) (*PrivateKeyCredentialSource, error)

	// ListDiscoverable returns handles for every credential bound to rpID,
	// newest first.
	ListDiscoverable(ctx context.Context, rpID ctap.RelyingPartyIdentifier) ([]ctap.CredentialHandle, error)

	// ListSpecified returns handles for the subset of credentialList that
	// both matches rpID and exists in storage, newest first.
	ListSpecified(ctx context.Context, rpID ctap.RelyingPartyIdentifier, credentialList []ctap.PublicKeyCredentialDescriptor) ([]ctap.CredentialHandle, error)
}

// MemoryStorage is a CredentialStorage held entirely in memory. Suitable for
// tests and ephemeral authenticators; records do not survive the process.
type MemoryStorage struct {
	mu   sync.RWMutex
	seq  uint64
	keys map[string]*memoryRecord
}

type memoryRecord struct {
	credential PrivateKeyCredentialSource
	seq        uint64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		keys: make(map[string]*memoryRecord),
	}
}

func (m *MemoryStorage) PutDiscoverable(_ context.Context, credential *PrivateKeyCredentialSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := string(credential.ID)
	seq := m.seq
	if prev, ok := m.keys[id]; ok {
		// overwrite keeps the original creation order
		seq = prev.seq
	} else {
		m.seq++
	}
	m.keys[id] = &memoryRecord{
		credential: *credential,
		seq:        seq,
	}
	return nil
}

func (m *MemoryStorage) Get(_ context.Context, handle *ctap.CredentialHandle) (*PrivateKeyCredentialSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.keys[string(handle.Descriptor.ID)]
	if !ok {
		return nil, nil
	}
	credential := rec.credential
	return &credential, nil
}

func (m *MemoryStorage) ListDiscoverable(_ context.Context, rpID ctap.RelyingPartyIdentifier) ([]ctap.CredentialHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []*memoryRecord
	for _, rec := range m.keys {
		if rec.credential.RPID == rpID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	handles := make([]ctap.CredentialHandle, 0, len(recs))
	for _, rec := range recs {
		handles = append(handles, rec.credential.Handle())
	}
	return handles, nil
}

func (m *MemoryStorage) ListSpecified(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
	credentialList []ctap.PublicKeyCredentialDescriptor,
) ([]ctap.CredentialHandle, error) {
	all, err := m.ListDiscoverable(ctx, rpID)
	if err != nil {
		return nil, err
	}

	var handles []ctap.CredentialHandle
	for _, handle := range all {
		for _, descriptor := range credentialList {
			if handle.Descriptor.Matches(descriptor) {
				handles = append(handles, handle)
				break
			}
		}
	}
	return handles, nil
}

// Len reports the number of stored credentials.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}
