package ctap

import (
	"errors"
	"fmt"
)

// Status is a CTAP status byte as sent in the first byte of a response
// message.
type Status uint8

const (
	StatusSuccess              Status = 0x00
	StatusInvalidCommand       Status = 0x01
	StatusInvalidParameter     Status = 0x02
	StatusUnsupportedAlgorithm Status = 0x26
	StatusOperationDenied      Status = 0x27
	StatusNoCredentials        Status = 0x2E
	StatusOther                Status = 0x7F
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "CTAP2_OK"
	case StatusInvalidCommand:
		return "CTAP1_ERR_INVALID_COMMAND"
	case StatusInvalidParameter:
		return "CTAP1_ERR_INVALID_PARAMETER"
	case StatusUnsupportedAlgorithm:
		return "CTAP2_ERR_UNSUPPORTED_ALGORITHM"
	case StatusOperationDenied:
		return "CTAP2_ERR_OPERATION_DENIED"
	case StatusNoCredentials:
		return "CTAP2_ERR_NO_CREDENTIALS"
	case StatusOther:
		return "CTAP1_ERR_OTHER"
	}
	return fmt.Sprintf("CTAP_ERR_0x%02X", uint8(s))
}

func (s Status) Error() string {
	return s.String()
}

// Sentinel errors for the failure kinds this authenticator produces. Each is
// a Status, so wrapping with fmt.Errorf("%w") or pkg/errors keeps both the
// errors.Is identity and the wire byte recoverable at any layer.
var (
	// ErrInvalidParameter covers every request shape this authenticator
	// deliberately does not support: pinUvAuth material, enterprise
	// attestation, exclude lists.
	ErrInvalidParameter error = StatusInvalidParameter

	// ErrUnsupportedAlgorithm means no requested algorithm matched ES256.
	ErrUnsupportedAlgorithm error = StatusUnsupportedAlgorithm

	// ErrOperationDenied means the user-presence gate declined the operation.
	ErrOperationDenied error = StatusOperationDenied

	// ErrNoCredentials means an assertion was requested but no matching
	// credential exists. Distinct from storage failures.
	ErrNoCredentials error = StatusNoCredentials
)

// StatusOf maps an error returned by the authenticator to its CTAP status
// byte. Errors without a Status in their chain map to CTAP1_ERR_OTHER; nil
// maps to CTAP2_OK.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusOther
}
