// Package presence provides user-presence gate implementations: fixed
// policies for scripted use and tests, and an interactive terminal prompt.
package presence

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
)

// Static is a fixed approval policy.
type Static bool

const (
	// Allow approves every operation. For tests and scripted environments
	// only; it removes the human from the loop entirely.
	Allow = Static(true)
	// Deny declines every operation.
	Deny = Static(false)
)

func (s Static) ApproveMakeCredential(_ context.Context, _ string) (bool, error) {
	return bool(s), nil
}

func (s Static) ApproveGetAssertion(_ context.Context, _ ctap.RelyingPartyIdentifier) (bool, error) {
	return bool(s), nil
}

func (s Static) Wink(_ context.Context) error {
	return nil
}

// Prompt asks for approval on a terminal. Reads block until the user answers;
// callers needing bounded latency must wrap the call, as the authenticator
// imposes no timeout of its own.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *Prompt) ApproveMakeCredential(ctx context.Context, displayName string) (bool, error) {
	return p.ask(ctx, fmt.Sprintf("Allow %q to create a credential?", displayName))
}

func (p *Prompt) ApproveGetAssertion(ctx context.Context, rpID ctap.RelyingPartyIdentifier) (bool, error) {
	return p.ask(ctx, fmt.Sprintf("Allow signing in to %q?", rpID))
}

func (p *Prompt) Wink(_ context.Context) error {
	_, err := fmt.Fprintln(p.out, "*wink*")
	return err
}

func (p *Prompt) ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(p.out, "%s [y/N] ", question); err != nil {
		return false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.Wrap(err, "reading approval")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
