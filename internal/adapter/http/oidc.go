package adapthttp

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// OIDC holds the provider handle and oauth2 configuration for Google
// sign-in.
type OIDC struct {
	Provider *oidc.Provider
	Config   oauth2.Config
}

// NewGoogleOIDC discovers the Google issuer and builds the code-flow
// configuration.
func NewGoogleOIDC(ctx context.Context, clientID, clientSecret, callbackURL string) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}

	return &OIDC{
		Provider: provider,
		Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}
