package jira

import (
	"context"
	"strings"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	AuthURL      = "https://auth.atlassian.com/authorize"
	TokenURL     = "https://auth.atlassian.com/oauth/token"
	ResourcesURL = "https://api.atlassian.com/oauth/token/accessible-resources"
)

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	ResourcesURL string
	HTTPClient   providers.HTTPDoer
}

// Client lists the Jira Cloud sites a token can reach; each accessible
// site is one connectable resource.
type Client struct {
	oauth        *providers.OAuth2Client
	resourcesURL string
}

func New(cfg Config) (*Client, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.ResourcesURL == "" {
		cfg.ResourcesURL = ResourcesURL
	}

	oauth, err := providers.NewOAuth2Client(providers.OAuth2Config{
		ID:                 core.ProviderJira,
		AuthURL:            cfg.AuthURL,
		TokenURL:           cfg.TokenURL,
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		ClientSecretInBody: true,
		// Atlassian requires the audience and an explicit consent
		// prompt on the authorize URL.
		ExtraAuthParams: map[string]string{
			"audience": "api.atlassian.com",
			"prompt":   "consent",
		},
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		oauth:        oauth,
		resourcesURL: cfg.ResourcesURL,
	}, nil
}

func (c *Client) ID() core.ProviderID {
	return core.ProviderJira
}

func (c *Client) AuthorizeURL(state string, scopes []string, redirectURI string) string {
	return c.oauth.AuthorizeURL(state, scopes, redirectURI)
}

func (c *Client) ExchangeCode(ctx context.Context, code string, redirectURI string) (core.ProviderToken, error) {
	return c.oauth.ExchangeCode(ctx, code, redirectURI)
}

type sitePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (c *Client) ListResources(ctx context.Context, token core.ProviderToken) ([]core.ProviderResource, error) {
	var sites []sitePayload
	if err := c.oauth.GetJSON(ctx, c.resourcesURL, token.AccessToken, &sites); err != nil {
		return nil, err
	}
	resources := make([]core.ProviderResource, 0, len(sites))
	for _, site := range sites {
		id := strings.TrimSpace(site.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(site.Name)
		if name == "" {
			name = id
		}
		resources = append(resources, core.ProviderResource{
			ID:   id,
			Name: name,
			URL:  strings.TrimSpace(site.URL),
		})
	}
	return resources, nil
}

var _ core.ProviderClient = (*Client)(nil)
