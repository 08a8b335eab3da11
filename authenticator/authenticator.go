// Package authenticator implements the FIDO authenticator API.
//
// Operations are defined by the FIDO specification and implemented in terms
// of pluggable dependencies that perform the actual cryptographic operations,
// secret storage and user interaction.
//
// See https://fidoalliance.org/specs/fido-v2.1-ps-20210615/fido-client-to-authenticator-protocol-v2.1-ps-20210615.html#authenticator-api
package authenticator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// UserPresence asks a human (or a policy) to approve a pending operation and
// can trigger a physical wink signal. Approval may block on real-world
// interaction for seconds; implementations should honor ctx cancellation.
type UserPresence interface {
	ApproveMakeCredential(ctx context.Context, displayName string) (bool, error)
	ApproveGetAssertion(ctx context.Context, rpID ctap.RelyingPartyIdentifier) (bool, error)
	Wink(ctx context.Context) error
}

// SecretStore is the credential engine as seen by the authenticator. It hands
// out handles and signed outputs only; private keys never cross this
// boundary.
type SecretStore interface {
	// MakeCredential generates fresh, cryptographically independent key
	// material on every call, even with identical inputs.
	MakeCredential(ctx context.Context, params ctap.PublicKeyCredentialParameters, rpID ctap.RelyingPartyIdentifier, userHandle ctap.UserHandle) (*ctap.CredentialHandle, error)

	// Attest returns serialized authenticator data and the packed attestation
	// statement for a newly created credential.
	Attest(ctx context.Context, rpID ctap.RelyingPartyIdentifier, handle *ctap.CredentialHandle, clientDataHash []byte, userPresent, userVerified bool) ([]byte, ctap.PackedAttestationStatement, error)

	// Assert returns serialized authenticator data and the assertion
	// signature made with the credential's own key.
	Assert(ctx context.Context, rpID ctap.RelyingPartyIdentifier, handle *ctap.CredentialHandle, clientDataHash []byte, userPresent, userVerified bool) ([]byte, []byte, error)

	ListDiscoverableCredentials(ctx context.Context, rpID ctap.RelyingPartyIdentifier) ([]ctap.CredentialHandle, error)
	ListSpecifiedCredentials(ctx context.Context, rpID ctap.RelyingPartyIdentifier, credentialList []ctap.PublicKeyCredentialDescriptor) ([]ctap.CredentialHandle, error)
}

const (
	versionMajor = 0
	versionMinor = 1
	versionPatch = 0
)

// Authenticator executes the CTAP2 command algorithms against a SecretStore
// and a UserPresence gate. It is invoked at most once per incoming command
// and spawns no background work.
type Authenticator struct {
	secrets  SecretStore
	presence UserPresence
	aaguid   uuid.UUID
	logger   *slog.Logger
	version  ctap.VersionInfo
}

type optionsState struct {
	aaguid  uuid.UUID
	logger  *slog.Logger
	version ctap.VersionInfo
}

type option struct {
	apply func(*optionsState)
}

func newoption(fn func(*optionsState)) option {
	return option{
		apply: fn,
	}
}

// WithAAGUID sets the authenticator model identifier embedded in attested
// credential data and reported by GetInfo.
func WithAAGUID(aaguid uuid.UUID) option {
	return newoption(func(s *optionsState) {
		s.aaguid = aaguid
	})
}

// WithLogger sets the structured logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) option {
	return newoption(func(s *optionsState) {
		s.logger = logger
	})
}

// WithVersion overrides the build version reported by Version.
func WithVersion(version ctap.VersionInfo) option {
	return newoption(func(s *optionsState) {
		s.version = version
	})
}

func New(secrets SecretStore, presence UserPresence, options ...option) *Authenticator {
	optionsState := optionsState{
		logger: slog.Default(),
		version: ctap.VersionInfo{
			Major:         versionMajor,
			Minor:         versionMinor,
			Patch:         versionPatch,
			WinkSupported: true,
		},
	}
	for _, option := range options {
		option.apply(&optionsState)
	}

	return &Authenticator{
		secrets:  secrets,
		presence: presence,
		aaguid:   optionsState.aaguid,
		logger:   optionsState.logger,
		version:  optionsState.version,
	}
}

// Version reports build identifiers and wink support. Never fails.
func (a *Authenticator) Version() ctap.VersionInfo {
	return a.version
}

// GetInfo returns the authenticator's static capability data. No side
// effects.
func (a *Authenticator) GetInfo() ctap.GetInfoResponse {
	return ctap.GetInfoResponse{
		Versions: []string{"FIDO_2_1", "U2F_V2"},
		AAGUID:   a.aaguid,
		Options: map[string]bool{
			"rk":   true,
			"up":   true,
			"plat": false,
		},
		Algorithms:                       []ctap.PublicKeyCredentialParameters{ctap.ES256Parameters()},
		RemainingDiscoverableCredentials: 0,
	}
}

// Wink forwards to the user presence gate; its error is surfaced unchanged.
func (a *Authenticator) Wink(ctx context.Context) error {
	return a.presence.Wink(ctx)
}
