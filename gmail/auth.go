package gmail

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// Authorizer runs the interactive consent step when no usable token is
// cached. It exists as an interface so tests can supply a pre-obtained
// token instead of driving a real browser flow.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// ConsoleAuthorizer prints the consent URL and reads the authorization
// code from In.
type ConsoleAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

func (a *ConsoleAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(a.Out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(a.In, &authCode); err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}
