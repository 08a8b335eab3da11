// Package authenticatordata builds and parses WebAuthn authenticator data
// according to https://www.w3.org/TR/webauthn/#sctn-authenticator-data
package authenticatordata

import (
	"github.com/google/uuid"
	cose_key "github.com/ldclabs/cose/key"
)

const (
	ADF_USER_PRESENT                 = byte(1)
	ADF_RFU1                         = byte(1 << 1)
	ADF_USER_VERIFIED                = byte(1 << 2)
	ADF_HAS_ATTESTED_CREDENTIAL_DATA = byte(1 << 6)
	ADF_HAS_EXTENSION_DATA           = byte(1 << 7)
)

type T struct {
	RelyingPartyHash       []byte
	Flags                  byte
	SignCount              uint32
	AttestedCredentialData AttestedCredentialData
	// Extensions (ignored)
}

func (t *T) UserPresent() bool {
	return t.Flags&ADF_USER_PRESENT != 0
}

func (t *T) UserVerified() bool {
	return t.Flags&ADF_USER_VERIFIED != 0
}

func (t *T) HasAttestedCredentialData() bool {
	return t.Flags&ADF_HAS_ATTESTED_CREDENTIAL_DATA != 0
}

// FlagsFor folds the user-presence and user-verification bits into a flags
// byte; attested marks that an attested credential data block follows.
func FlagsFor(userPresent, userVerified, attested bool) byte {
	var flags byte
	if userPresent {
		flags |= ADF_USER_PRESENT
	}
	if userVerified {
		flags |= ADF_USER_VERIFIED
	}
	if attested {
		flags |= ADF_HAS_ATTESTED_CREDENTIAL_DATA
	}
	return flags
}

type AttestedCredentialData struct {
	AAGUID              uuid.UUID
	CredentialID        []byte
	CredentialPublicKey cose_key.Key
}
