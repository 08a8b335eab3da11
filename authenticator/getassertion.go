package authenticator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// GetAssertion executes the authenticatorGetAssertion algorithm from
// https://fidoalliance.org/specs/fido-v2.1-ps-20210615/fido-client-to-authenticator-protocol-v2.1-ps-20210615.html#sctn-getAssert-authnr-alg
//
// Credential selection: the allow list, when present, is intersected with
// storage; otherwise the discoverable credentials for the relying party are
// enumerated. The newest matching credential wins. An empty candidate set is
// reported as CTAP2_ERR_NO_CREDENTIALS before any presence prompt, so a user
// is never asked to authorize a request nothing can satisfy.
func (a *Authenticator) GetAssertion(ctx context.Context, cmd *ctap.GetAssertionCommand) (*ctap.GetAssertionResponse, error) {
	a.logger.DebugContext(ctx, "getAssertion", "rp", cmd.RPID)

	if cmd.PinUvAuthParam != nil || cmd.PinUvAuthProtocol != nil {
		return nil, errors.WithMessage(ctap.ErrInvalidParameter, "pinUvAuth is not supported")
	}

	requirePresence, err := processGetAssertionOptions(cmd.Options)
	if err != nil {
		return nil, err
	}

	candidates, err := a.selectCredentials(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.WithMessagef(ctap.ErrNoCredentials, "no credentials for %q", cmd.RPID)
	}
	credential := candidates[0]

	up := false
	if requirePresence {
		approved, err := a.presence.ApproveGetAssertion(ctx, cmd.RPID)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, errors.WithMessage(ctap.ErrOperationDenied, "user denied assertion")
		}
		up = true
	}

	authData, signature, err := a.secrets.Assert(ctx, cmd.RPID, &credential, cmd.ClientDataHash, up, false)
	if err != nil {
		return nil, err
	}

	return &ctap.GetAssertionResponse{
		Credential:          credential.Descriptor,
		AuthData:            authData,
		Signature:           signature,
		NumberOfCredentials: uint(len(candidates)),
	}, nil
}

// selectCredentials resolves the candidate handles, newest first.
func (a *Authenticator) selectCredentials(ctx context.Context, cmd *ctap.GetAssertionCommand) ([]ctap.CredentialHandle, error) {
	if cmd.AllowList != nil {
		return a.secrets.ListSpecifiedCredentials(ctx, cmd.RPID, cmd.AllowList)
	}
	return a.secrets.ListDiscoverableCredentials(ctx, cmd.RPID)
}
