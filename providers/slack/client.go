package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	AuthURL     = "https://slack.com/oauth/v2/authorize"
	TokenURL    = "https://slack.com/api/oauth.v2.access"
	TeamInfoURL = "https://slack.com/api/team.info"
)

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	TeamInfoURL  string
	HTTPClient   providers.HTTPDoer
}

// Client treats the token's workspace as the single connectable
// resource; Slack tokens are scoped to exactly one team.
type Client struct {
	oauth       *providers.OAuth2Client
	teamInfoURL string
}

func New(cfg Config) (*Client, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.TeamInfoURL == "" {
		cfg.TeamInfoURL = TeamInfoURL
	}

	oauth, err := providers.NewOAuth2Client(providers.OAuth2Config{
		ID:                 core.ProviderSlack,
		AuthURL:            cfg.AuthURL,
		TokenURL:           cfg.TokenURL,
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		ClientSecretInBody: true,
		HTTPClient:         cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		oauth:       oauth,
		teamInfoURL: cfg.TeamInfoURL,
	}, nil
}

func (c *Client) ID() core.ProviderID {
	return core.ProviderSlack
}

func (c *Client) AuthorizeURL(state string, scopes []string, redirectURI string) string {
	return c.oauth.AuthorizeURL(state, scopes, redirectURI)
}

func (c *Client) ExchangeCode(ctx context.Context, code string, redirectURI string) (core.ProviderToken, error) {
	return c.oauth.ExchangeCode(ctx, code, redirectURI)
}

type teamInfoPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Team  struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"team"`
}

func (c *Client) ListResources(ctx context.Context, token core.ProviderToken) ([]core.ProviderResource, error) {
	var info teamInfoPayload
	if err := c.oauth.GetJSON(ctx, c.teamInfoURL, token.AccessToken, &info); err != nil {
		return nil, err
	}
	if !info.OK {
		reason := strings.TrimSpace(info.Error)
		if reason == "" {
			reason = "unknown error"
		}
		return nil, fmt.Errorf("slack: team.info failed: %s", reason)
	}
	if strings.TrimSpace(info.Team.ID) == "" {
		return []core.ProviderResource{}, nil
	}

	name := strings.TrimSpace(info.Team.Name)
	if name == "" {
		name = info.Team.ID
	}
	resourceURL := ""
	if domain := strings.TrimSpace(info.Team.Domain); domain != "" {
		resourceURL = "https://" + domain + ".slack.com"
	}
	return []core.ProviderResource{{
		ID:   strings.TrimSpace(info.Team.ID),
		Name: name,
		URL:  resourceURL,
	}}, nil
}

var _ core.ProviderClient = (*Client)(nil)
