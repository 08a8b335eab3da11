package ctap_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// Commands travel as integer-keyed CBOR maps; check the tags line up with
// the CTAP2 parameter numbers.
func TestMakeCredentialCommandDecode(t *testing.T) {
	wire, err := cbor.Marshal(map[int]any{
		1: []byte{0x01, 0x02},
		2: map[string]any{"id": "example.com", "name": "Example RP"},
		3: map[string]any{"id": []byte{0x01}, "name": "user@example.com"},
		4: []map[string]any{{"type": "public-key", "alg": -7}},
	})
	require.NoError(t, err)

	cmd := ctap.MakeCredentialCommand{}
	require.NoError(t, cbor.Unmarshal(wire, &cmd))

	require.Equal(t, []byte{0x01, 0x02}, cmd.ClientDataHash)
	require.Equal(t, ctap.RelyingPartyIdentifier("example.com"), cmd.RP.ID)
	require.Equal(t, ctap.UserHandle{0x01}, cmd.User.ID)
	require.Equal(t, []ctap.PublicKeyCredentialParameters{ctap.ES256Parameters()}, cmd.PubKeyCredParams)
	require.Nil(t, cmd.PinUvAuthParam)
	require.Nil(t, cmd.EnterpriseAttestation)
}

func TestMakeCredentialResponseEncode(t *testing.T) {
	wire, err := cbor.Marshal(&ctap.MakeCredentialResponse{
		Format:   ctap.AttestationFormatPacked,
		AuthData: []byte{0xaa},
		AttStmt: ctap.PackedAttestationStatement{
			Alg: ctap.AlgES256,
			Sig: []byte{0xbb},
			X5C: [][]byte{{0xcc}},
		},
	})
	require.NoError(t, err)

	var decoded map[int]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(wire, &decoded))
	require.Contains(t, decoded, 1)
	require.Contains(t, decoded, 2)
	require.Contains(t, decoded, 3)

	var stmt ctap.PackedAttestationStatement
	require.NoError(t, cbor.Unmarshal(decoded[3], &stmt))
	require.Equal(t, ctap.AlgES256, stmt.Alg)
	require.Equal(t, [][]byte{{0xcc}}, stmt.X5C)
}

func TestDescriptorMatches(t *testing.T) {
	a := ctap.PublicKeyCredentialDescriptor{Type: ctap.PublicKey, ID: ctap.CredentialID{0x01}}
	b := ctap.PublicKeyCredentialDescriptor{Type: ctap.PublicKey, ID: ctap.CredentialID{0x01}, Transports: []string{"usb"}}
	c := ctap.PublicKeyCredentialDescriptor{Type: ctap.PublicKey, ID: ctap.CredentialID{0x02}}

	require.True(t, a.Matches(b))
	require.False(t, a.Matches(c))
}
