package core

import (
	"fmt"
	"strings"
	"time"
)

// ProviderConfig carries the OAuth client settings for one provider.
// MinimalScopes are used by the login entrypoint; Scopes by the
// tenant-scoped connect entrypoints.
type ProviderConfig struct {
	ClientID      string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret  string   `koanf:"client_secret" mapstructure:"client_secret"`
	Scopes        []string `koanf:"scopes" mapstructure:"scopes"`
	MinimalScopes []string `koanf:"minimal_scopes" mapstructure:"minimal_scopes"`
}

// GitHubConfig additionally names the installation app used to build
// the alternate installation URL.
type GitHubConfig struct {
	ProviderConfig `koanf:",squash" mapstructure:",squash"`

	InstallationAppName string `koanf:"installation_app_name" mapstructure:"installation_app_name"`
}

type ProvidersConfig struct {
	GitHub GitHubConfig   `koanf:"github" mapstructure:"github"`
	Jira   ProviderConfig `koanf:"jira" mapstructure:"jira"`
	Slack  ProviderConfig `koanf:"slack" mapstructure:"slack"`
}

type StateConfig struct {
	Secret     string        `koanf:"secret" mapstructure:"secret"`
	TTL        time.Duration `koanf:"ttl" mapstructure:"ttl"`
	MaxSkew    time.Duration `koanf:"max_skew" mapstructure:"max_skew"`
	SigningKey string        `koanf:"signing_key" mapstructure:"signing_key"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	CallbackURL string          `koanf:"callback_url" mapstructure:"callback_url"`
	State       StateConfig     `koanf:"state" mapstructure:"state"`
	Providers   ProvidersConfig `koanf:"providers" mapstructure:"providers"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "authflow",
		State: StateConfig{
			TTL:     DefaultStateTTL,
			MaxSkew: DefaultStateMaxSkew,
		},
		Providers: ProvidersConfig{
			GitHub: GitHubConfig{
				ProviderConfig: ProviderConfig{
					Scopes:        []string{"read:org", "repo"},
					MinimalScopes: []string{"read:user", "user:email"},
				},
			},
			Jira: ProviderConfig{
				Scopes: []string{"read:jira-work", "read:jira-user", "offline_access"},
			},
			Slack: ProviderConfig{
				Scopes: []string{"channels:read", "chat:write", "team:read"},
			},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.State.TTL < 0 {
		return fmt.Errorf("core: state.ttl must not be negative")
	}
	if c.State.MaxSkew < 0 {
		return fmt.Errorf("core: state.max_skew must not be negative")
	}
	return nil
}

// StateSecret resolves the signing secret, preferring the explicit
// signing key over the legacy secret field.
func (c Config) StateSecret() []byte {
	if key := strings.TrimSpace(c.State.SigningKey); key != "" {
		return []byte(key)
	}
	if secret := strings.TrimSpace(c.State.Secret); secret != "" {
		return []byte(secret)
	}
	return nil
}

// ProviderSettings returns the config block for a provider id.
func (c Config) ProviderSettings(provider ProviderID) (ProviderConfig, bool) {
	switch provider {
	case ProviderGitHub:
		return c.Providers.GitHub.ProviderConfig, true
	case ProviderJira:
		return c.Providers.Jira, true
	case ProviderSlack:
		return c.Providers.Slack, true
	}
	return ProviderConfig{}, false
}
