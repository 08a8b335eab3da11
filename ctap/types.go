// Package ctap defines the CTAP2 protocol types consumed and produced by the
// authenticator: entities, credential descriptors, commands, responses and
// status codes.
//
// Command and response structs carry cbor tags matching the integer-keyed maps
// defined by https://fidoalliance.org/specs/fido-v2.1-ps-20210615/fido-client-to-authenticator-protocol-v2.1-ps-20210615.html
// so they can be moved over a CTAPHID-style transport as-is. The transport
// itself is out of scope for this module.
package ctap

import (
	"bytes"
	"time"
)

// RelyingPartyIdentifier is the opaque identity of the party requesting a
// credential, usually a domain name.
type RelyingPartyIdentifier string

// UserHandle is the opaque byte identity of a user account, unique per
// relying party.
type UserHandle []byte

// CredentialID is the opaque identifier of a single credential, assigned once
// at creation time.
type CredentialID []byte

// COSEAlgorithmIdentifier is a COSE registry algorithm number.
type COSEAlgorithmIdentifier int

// AlgES256 is ECDSA over P-256 with SHA-256, the single algorithm this
// authenticator supports.
const AlgES256 COSEAlgorithmIdentifier = -7

type PublicKeyCredentialType string

const PublicKey PublicKeyCredentialType = "public-key"

type PublicKeyCredentialParameters struct {
	Type PublicKeyCredentialType `cbor:"type"`
	Alg  COSEAlgorithmIdentifier `cbor:"alg"`
}

// ES256Parameters returns the parameter entry for the mandatory algorithm.
func ES256Parameters() PublicKeyCredentialParameters {
	return PublicKeyCredentialParameters{
		Type: PublicKey,
		Alg:  AlgES256,
	}
}

type PublicKeyCredentialRpEntity struct {
	ID   RelyingPartyIdentifier `cbor:"id"`
	Name string                 `cbor:"name,omitempty"`
}

type PublicKeyCredentialUserEntity struct {
	ID          UserHandle `cbor:"id"`
	Name        string     `cbor:"name,omitempty"`
	DisplayName string     `cbor:"displayName,omitempty"`
}

type PublicKeyCredentialDescriptor struct {
	Type       PublicKeyCredentialType `cbor:"type"`
	ID         CredentialID            `cbor:"id"`
	Transports []string                `cbor:"transports,omitempty"`
}

// Matches reports whether two descriptors name the same credential.
func (d PublicKeyCredentialDescriptor) Matches(other PublicKeyCredentialDescriptor) bool {
	return d.Type == other.Type && bytes.Equal(d.ID, other.ID)
}

// CredentialHandle is the reference the credential engine hands back instead
// of key material: the public descriptor plus enough metadata to re-locate the
// backing private record. Private keys never travel inside a handle.
type CredentialHandle struct {
	Descriptor PublicKeyCredentialDescriptor
	RPID       RelyingPartyIdentifier
	UserHandle UserHandle
	CreatedAt  time.Time
}

// Options is the CTAP2 options map ("rk", "up", "uv", ...). Keys an
// authenticator does not understand are treated as absent.
type Options map[string]bool
