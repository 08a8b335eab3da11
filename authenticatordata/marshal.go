package authenticatordata

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Marshal serializes authenticator data. The attested credential data block
// is written only when the corresponding flag bit is set; callers are
// expected to have derived Flags with FlagsFor.
func Marshal(src *T) ([]byte, error) {
	if len(src.RelyingPartyHash) != sha256.Size {
		return nil, errors.Errorf("relying party hash must be %d bytes, got %d", sha256.Size, len(src.RelyingPartyHash))
	}

	buf := bytes.Buffer{}
	buf.Write(src.RelyingPartyHash)
	buf.WriteByte(src.Flags)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], src.SignCount)
	buf.Write(count[:])

	if src.Flags&ADF_HAS_ATTESTED_CREDENTIAL_DATA != 0 {
		if err := marshalAttestedCredentialData(&buf, &src.AttestedCredentialData); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func marshalAttestedCredentialData(buf *bytes.Buffer, src *AttestedCredentialData) error {
	if len(src.CredentialID) == 0 || len(src.CredentialID) > math.MaxUint16 {
		return errors.Errorf("credential id length %d out of range", len(src.CredentialID))
	}

	buf.Write(src.AAGUID[:])

	var credLen [2]byte
	binary.BigEndian.PutUint16(credLen[:], uint16(len(src.CredentialID)))
	buf.Write(credLen[:])
	buf.Write(src.CredentialID)

	keyb, err := cbor.Marshal(src.CredentialPublicKey)
	if err != nil {
		return errors.Wrap(err, "marshalling credential public key")
	}
	buf.Write(keyb)

	return nil
}
