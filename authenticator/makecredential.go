package authenticator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// MakeCredential executes the authenticatorMakeCredential algorithm from
// https://fidoalliance.org/specs/fido-v2.1-ps-20210615/fido-client-to-authenticator-protocol-v2.1-ps-20210615.html#sctn-makeCred-authnr-alg
//
// Every numbered step is a hard gate: the first failing step aborts the
// command, and no credential is persisted before the presence gate has
// authorized the operation.
func (a *Authenticator) MakeCredential(ctx context.Context, cmd *ctap.MakeCredentialCommand) (*ctap.MakeCredentialResponse, error) {
	a.logger.DebugContext(ctx, "makeCredential", "rp", cmd.RP.ID, "user", cmd.User.Name)

	// 1-2. This authenticator supports no pinUvAuthToken, clientPin,
	// pinUvAuthParam or pinUvAuthProtocol features.
	if cmd.PinUvAuthParam != nil || cmd.PinUvAuthProtocol != nil {
		return nil, errors.WithMessage(ctap.ErrInvalidParameter, "pinUvAuth is not supported")
	}

	// 3. Select the first supported algorithm in pubKeyCredParams.
	params, err := selectParameters(cmd.PubKeyCredParams)
	if err != nil {
		return nil, err
	}

	// 4. Initialize both "uv" and "up" as false. No on-board user
	// verification exists, so uv stays false for the whole operation.
	uv := false
	up := false

	// 5. Process the options parameter if present; option keys that are not
	// understood are treated as absent.
	if err := processMakeCredentialOptions(cmd.Options); err != nil {
		return nil, err
	}

	// 9. Not enterprise attestation capable.
	if cmd.EnterpriseAttestation != nil {
		return nil, errors.WithMessage(ctap.ErrInvalidParameter, "enterprise attestation is not supported")
	}

	// 12. Duplicate-credential exclusion is not implemented; reject rather
	// than silently ignore the list.
	if cmd.ExcludeList != nil {
		return nil, errors.WithMessage(ctap.ErrInvalidParameter, "excludeList is not supported")
	}

	// 13-14. Collect evidence of user interaction and set the "up" bit.
	approved, err := a.presence.ApproveMakeCredential(ctx, cmd.RP.Name)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, errors.WithMessage(ctap.ErrOperationDenied, "user denied credential creation")
	}
	up = true

	// 16-18. Generate and persist the credential key pair for the algorithm
	// chosen in step 3, bound to the relying party and user handle.
	handle, err := a.secrets.MakeCredential(ctx, params, cmd.RP.ID, cmd.User.ID)
	if err != nil {
		return nil, err
	}

	// 19. Generate an attestation statement for the newly-created credential
	// using clientDataHash.
	authData, attStmt, err := a.secrets.Attest(ctx, cmd.RP.ID, handle, cmd.ClientDataHash, up, uv)
	if err != nil {
		return nil, err
	}

	return &ctap.MakeCredentialResponse{
		Format:   ctap.AttestationFormatPacked,
		AuthData: authData,
		AttStmt:  attStmt,
	}, nil
}

func selectParameters(params []ctap.PublicKeyCredentialParameters) (ctap.PublicKeyCredentialParameters, error) {
	for _, param := range params {
		if param.Type == ctap.PublicKey && param.Alg == ctap.AlgES256 {
			return param, nil
		}
	}
	return ctap.PublicKeyCredentialParameters{}, errors.WithMessage(ctap.ErrUnsupportedAlgorithm, "only ES256 is supported")
}
