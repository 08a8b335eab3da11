package ctap

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// AttestationFormatPacked is the WebAuthn "packed" attestation statement
// format identifier.
const AttestationFormatPacked = "packed"

// MakeCredentialCommand is the parameter map of authenticatorMakeCredential
// (command 0x01).
type MakeCredentialCommand struct {
	ClientDataHash        []byte                          `cbor:"1,keyasint"`
	RP                    PublicKeyCredentialRpEntity     `cbor:"2,keyasint"`
	User                  PublicKeyCredentialUserEntity   `cbor:"3,keyasint"`
	PubKeyCredParams      []PublicKeyCredentialParameters `cbor:"4,keyasint"`
	ExcludeList           []PublicKeyCredentialDescriptor `cbor:"5,keyasint,omitempty"`
	Extensions            map[string]cbor.RawMessage      `cbor:"6,keyasint,omitempty"`
	Options               Options                         `cbor:"7,keyasint,omitempty"`
	PinUvAuthParam        []byte                          `cbor:"8,keyasint,omitempty"`
	PinUvAuthProtocol     *uint                           `cbor:"9,keyasint,omitempty"`
	EnterpriseAttestation *uint                           `cbor:"10,keyasint,omitempty"`
}

type MakeCredentialResponse struct {
	Format   string                     `cbor:"1,keyasint"`
	AuthData []byte                     `cbor:"2,keyasint"`
	AttStmt  PackedAttestationStatement `cbor:"3,keyasint"`
}

// PackedAttestationStatement is the "packed" attestation statement: the
// attestation signature over authData || clientDataHash, the algorithm it was
// made with, and the attestation certificate chain (leaf first).
type PackedAttestationStatement struct {
	Alg COSEAlgorithmIdentifier `cbor:"alg"`
	Sig []byte                  `cbor:"sig"`
	X5C [][]byte                `cbor:"x5c,omitempty"`
}

// GetAssertionCommand is the parameter map of authenticatorGetAssertion
// (command 0x02).
type GetAssertionCommand struct {
	RPID              RelyingPartyIdentifier          `cbor:"1,keyasint"`
	ClientDataHash    []byte                          `cbor:"2,keyasint"`
	AllowList         []PublicKeyCredentialDescriptor `cbor:"3,keyasint,omitempty"`
	Extensions        map[string]cbor.RawMessage      `cbor:"4,keyasint,omitempty"`
	Options           Options                         `cbor:"5,keyasint,omitempty"`
	PinUvAuthParam    []byte                          `cbor:"6,keyasint,omitempty"`
	PinUvAuthProtocol *uint                           `cbor:"7,keyasint,omitempty"`
}

type GetAssertionResponse struct {
	Credential          PublicKeyCredentialDescriptor `cbor:"1,keyasint"`
	AuthData            []byte                        `cbor:"2,keyasint"`
	Signature           []byte                        `cbor:"3,keyasint"`
	NumberOfCredentials uint                          `cbor:"5,keyasint,omitempty"`
}

// GetInfoResponse is the capability map of authenticatorGetInfo (command
// 0x04). Only the fields this authenticator populates are declared.
type GetInfoResponse struct {
	Versions                         []string                        `cbor:"1,keyasint"`
	AAGUID                           uuid.UUID                       `cbor:"3,keyasint"`
	Options                          map[string]bool                 `cbor:"4,keyasint,omitempty"`
	Algorithms                       []PublicKeyCredentialParameters `cbor:"10,keyasint,omitempty"`
	RemainingDiscoverableCredentials uint                            `cbor:"20,keyasint"`
}

// VersionInfo describes the build, read from build metadata rather than
// runtime configuration.
type VersionInfo struct {
	Major         uint32
	Minor         uint32
	Patch         uint32
	WinkSupported bool
}
