package authenticator

import (
	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// Recognized CTAP2 option keys. The specification defines normative behavior
// for "rk", "up" and "uv", so they must be understood; anything else is
// treated as absent.
const (
	optionRK = "rk"
	optionUP = "up"
	optionUV = "uv"
)

// processMakeCredentialOptions applies the makeCredential rules: "uv" must
// not request on-board verification (none exists), "up" may not be false at
// creation, and "rk" is accepted with either value since every credential
// this authenticator creates is discoverable.
func processMakeCredentialOptions(options ctap.Options) error {
	if uv, ok := options[optionUV]; ok && uv {
		return errors.WithMessage(ctap.ErrInvalidParameter, "uv option requested but user verification is not supported")
	}
	if up, ok := options[optionUP]; ok && !up {
		return errors.WithMessage(ctap.ErrInvalidParameter, "up option must not be false for makeCredential")
	}
	return nil
}

// processGetAssertionOptions returns whether user presence is required for
// the assertion. "up" defaults to true; "up": false requests a silent
// assertion that skips the presence gate and leaves the UP flag clear.
func processGetAssertionOptions(options ctap.Options) (requirePresence bool, err error) {
	if uv, ok := options[optionUV]; ok && uv {
		return false, errors.WithMessage(ctap.ErrInvalidParameter, "uv option requested but user verification is not supported")
	}
	if up, ok := options[optionUP]; ok {
		return up, nil
	}
	return true, nil
}
