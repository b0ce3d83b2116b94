package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	AuthURL  = "https://github.com/login/oauth/authorize"
	TokenURL = "https://github.com/login/oauth/access_token"
	APIURL   = "https://api.github.com"
	WebURL   = "https://github.com"
	AppsURL  = "https://github.com/apps"
)

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	// InstallationAppName names the GitHub App used to build the
	// alternate installation URL.
	InstallationAppName string
	HTTPClient          providers.HTTPDoer
}

// Client is the login-capable provider: besides the shared OAuth2
// surface it resolves the caller's identity and verified email.
type Client struct {
	oauth  *providers.OAuth2Client
	apiURL string
	app    string
}

func New(cfg Config) (*Client, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = APIURL
	}

	oauth, err := providers.NewOAuth2Client(providers.OAuth2Config{
		ID:           core.ProviderGitHub,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		// GitHub's token endpoint rejects basic auth for OAuth apps.
		ClientSecretInBody: true,
		HTTPClient:         cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		oauth:  oauth,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		app:    strings.TrimSpace(cfg.InstallationAppName),
	}, nil
}

func (c *Client) ID() core.ProviderID {
	return core.ProviderGitHub
}

func (c *Client) AuthorizeURL(state string, scopes []string, redirectURI string) string {
	return c.oauth.AuthorizeURL(state, scopes, redirectURI)
}

func (c *Client) ExchangeCode(ctx context.Context, code string, redirectURI string) (core.ProviderToken, error) {
	return c.oauth.ExchangeCode(ctx, code, redirectURI)
}

// InstallationURL is the alternate entry that installs the GitHub App
// instead of running the plain OAuth authorize flow. Empty when no app
// name is configured.
func (c *Client) InstallationURL() string {
	if c == nil || c.app == "" {
		return ""
	}
	return AppsURL + "/" + c.app + "/installations/new"
}

type orgPayload struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

// ListResources returns the organizations the token can see; these are
// the candidates a tenant connects to.
func (c *Client) ListResources(ctx context.Context, token core.ProviderToken) ([]core.ProviderResource, error) {
	var orgs []orgPayload
	if err := c.oauth.GetJSON(ctx, c.apiURL+"/user/orgs", token.AccessToken, &orgs); err != nil {
		return nil, err
	}
	resources := make([]core.ProviderResource, 0, len(orgs))
	for _, org := range orgs {
		login := strings.TrimSpace(org.Login)
		if login == "" {
			continue
		}
		resourceURL := strings.TrimSpace(org.HTMLURL)
		if resourceURL == "" {
			resourceURL = WebURL + "/" + login
		}
		resources = append(resources, core.ProviderResource{
			ID:   login,
			Name: login,
			URL:  resourceURL,
		})
	}
	return resources, nil
}

type userPayload struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *Client) Identity(ctx context.Context, accessToken string) (core.ExternalProfile, error) {
	var user userPayload
	if err := c.oauth.GetJSON(ctx, c.apiURL+"/user", accessToken, &user); err != nil {
		return core.ExternalProfile{}, err
	}
	if user.ID == 0 {
		return core.ExternalProfile{}, fmt.Errorf("github: user payload has no id")
	}
	return core.ExternalProfile{
		ID:          strconv.FormatInt(user.ID, 10),
		Handle:      strings.TrimSpace(user.Login),
		Email:       strings.TrimSpace(user.Email),
		DisplayName: strings.TrimSpace(user.Name),
	}, nil
}

type emailPayload struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// VerifiedEmail returns the primary verified address, falling back to
// any verified one. Empty when the account exposes none.
func (c *Client) VerifiedEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []emailPayload
	if err := c.oauth.GetJSON(ctx, c.apiURL+"/user/emails", accessToken, &emails); err != nil {
		return "", err
	}
	fallback := ""
	for _, email := range emails {
		if !email.Verified {
			continue
		}
		if email.Primary {
			return strings.TrimSpace(email.Email), nil
		}
		if fallback == "" {
			fallback = strings.TrimSpace(email.Email)
		}
	}
	return fallback, nil
}

var _ core.LoginProviderClient = (*Client)(nil)
