package presence_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-fido2-authenticator/presence"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	ok, err := presence.Allow.ApproveMakeCredential(ctx, "Example RP")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = presence.Deny.ApproveGetAssertion(ctx, "example.com")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, presence.Allow.Wink(ctx))
}

func TestPromptApproves(t *testing.T) {
	out := bytes.Buffer{}
	gate := presence.NewPrompt(strings.NewReader("y\n"), &out)

	ok, err := gate.ApproveMakeCredential(context.Background(), "Example RP")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), `"Example RP"`)
}

func TestPromptDefaultsToDeny(t *testing.T) {
	out := bytes.Buffer{}
	gate := presence.NewPrompt(strings.NewReader("\n"), &out)

	ok, err := gate.ApproveGetAssertion(context.Background(), "example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPromptTreatsEOFAsDeny(t *testing.T) {
	out := bytes.Buffer{}
	gate := presence.NewPrompt(strings.NewReader(""), &out)

	ok, err := gate.ApproveMakeCredential(context.Background(), "Example RP")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPromptHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := presence.NewPrompt(strings.NewReader("y\n"), &bytes.Buffer{})
	_, err := gate.ApproveMakeCredential(ctx, "Example RP")
	require.ErrorIs(t, err, context.Canceled)
}

func TestPromptWink(t *testing.T) {
	out := bytes.Buffer{}
	gate := presence.NewPrompt(strings.NewReader(""), &out)

	require.NoError(t, gate.Wink(context.Background()))
	require.Contains(t, out.String(), "wink")
}
