package ctap_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

func TestStatusOf(t *testing.T) {
	require.Equal(t, ctap.StatusSuccess, ctap.StatusOf(nil))
	require.Equal(t, ctap.StatusNoCredentials, ctap.StatusOf(ctap.ErrNoCredentials))
	require.Equal(t, ctap.StatusOther, ctap.StatusOf(io.ErrUnexpectedEOF))
}

// Wrapping keeps both the errors.Is identity and the wire byte recoverable.
func TestStatusSurvivesWrapping(t *testing.T) {
	err := errors.WithMessage(ctap.ErrInvalidParameter, "pinUvAuth is not supported")
	err = fmt.Errorf("handling command: %w", err)

	require.ErrorIs(t, err, ctap.ErrInvalidParameter)
	require.Equal(t, ctap.StatusInvalidParameter, ctap.StatusOf(err))
}

func TestStatusStrings(t *testing.T) {
	require.Equal(t, "CTAP2_ERR_NO_CREDENTIALS", ctap.StatusNoCredentials.Error())
	require.Equal(t, "CTAP_ERR_0xEE", ctap.Status(0xEE).String())
}
