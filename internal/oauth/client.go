// Package oauth talks to the external identity providers. It owns the
// authorization-code exchange and the userinfo fetch; the rest of the
// application only ever sees the resolved profile claim map.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/config"
)

// provider couples an oauth2.Config with the userinfo endpoint that
// yields the profile claims for that provider.
type provider struct {
	conf        *oauth2.Config
	userInfoURL string
}

// Client resolves authorization codes into profile claim maps for the
// configured providers.
type Client struct {
	providers map[string]provider
}

// NewClient builds the provider registry from configuration. Redirect
// URLs follow the callback route convention
// <base>/login/oauth2/code/<provider>.
func NewClient(cfg config.Config) *Client {
	redirect := func(p string) string {
		return fmt.Sprintf("%s/login/oauth2/code/%s", cfg.OAuthRedirectBase, p)
	}
	return &Client{providers: map[string]provider{
		"google": {
			conf: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  redirect("google"),
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		},
		"facebook": {
			conf: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				RedirectURL:  redirect("facebook"),
				Scopes:       []string{"email", "public_profile"},
			},
			userInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture",
		},
	}}
}

// AuthCodeURL returns the provider's authorization URL carrying the
// given anti-CSRF state.
func (c *Client) AuthCodeURL(providerName, state string) (string, error) {
	p, ok := c.providers[providerName]
	if !ok {
		return "", fmt.Errorf("%w: %q", auth.ErrUnknownProvider, providerName)
	}
	return p.conf.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a provider access token.
func (c *Client) Exchange(ctx context.Context, providerName, code string) (*oauth2.Token, error) {
	p, ok := c.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownProvider, providerName)
	}
	return p.conf.Exchange(ctx, code)
}

// FetchProfile calls the provider's userinfo endpoint with the access
// token and returns the raw claim map, normalized so every provider
// exposes a flat "picture" string claim.
func (c *Client) FetchProfile(ctx context.Context, providerName string, token *oauth2.Token) (map[string]any, error) {
	p, ok := c.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownProvider, providerName)
	}
	resp, err := p.conf.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request to %s failed with status %d", providerName, resp.StatusCode)
	}
	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, err
	}
	return NormalizeProfile(claims), nil
}

// NormalizeProfile flattens provider-specific nesting. Facebook wraps
// the avatar as picture.data.url; Google already returns a flat
// picture string.
func NormalizeProfile(claims map[string]any) map[string]any {
	pic, ok := claims["picture"].(map[string]any)
	if !ok {
		return claims
	}
	if data, ok := pic["data"].(map[string]any); ok {
		if url, ok := data["url"].(string); ok {
			claims["picture"] = url
			return claims
		}
	}
	delete(claims, "picture")
	return claims
}

// StateToken returns a cryptographically random URL-safe string used
// as the anti-CSRF state parameter.
func StateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
