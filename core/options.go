package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	persistenceClient any
	repositoryFactory any
	registry          *FlowRegistry
	codec             *StateTokenCodec
	credentialCodec   CredentialCodec
	credentialCipher  CredentialCipher
	sessions          SessionManager
	sideEffects       *SideEffectDispatcher
	enqueuer          TaskEnqueuer
	slugify           SlugFunc
	userStore         UserStore
	identityStore     IdentityStore
	tenantStore       TenantStore
	membershipStore   MembershipStore
	credentialStore   CredentialStore
	integrationStore  IntegrationStore
	providerClients   map[ProviderID]ProviderClient
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithFlowRegistry(registry *FlowRegistry) Option {
	return func(b *serviceBuilder) {
		b.registry = registry
	}
}

func WithStateTokenCodec(codec *StateTokenCodec) Option {
	return func(b *serviceBuilder) {
		b.codec = codec
	}
}

func WithCredentialCodec(codec CredentialCodec) Option {
	return func(b *serviceBuilder) {
		b.credentialCodec = codec
	}
}

func WithCredentialCipher(cipher CredentialCipher) Option {
	return func(b *serviceBuilder) {
		b.credentialCipher = cipher
	}
}

func WithSessionManager(sessions SessionManager) Option {
	return func(b *serviceBuilder) {
		b.sessions = sessions
	}
}

func WithTaskEnqueuer(enqueuer TaskEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.enqueuer = enqueuer
	}
}

func WithSlugFunc(slugify SlugFunc) Option {
	return func(b *serviceBuilder) {
		b.slugify = slugify
	}
}

func WithUserStore(store UserStore) Option {
	return func(b *serviceBuilder) {
		b.userStore = store
	}
}

func WithIdentityStore(store IdentityStore) Option {
	return func(b *serviceBuilder) {
		b.identityStore = store
	}
}

func WithTenantStore(store TenantStore) Option {
	return func(b *serviceBuilder) {
		b.tenantStore = store
	}
}

func WithMembershipStore(store MembershipStore) Option {
	return func(b *serviceBuilder) {
		b.membershipStore = store
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(b *serviceBuilder) {
		b.credentialStore = store
	}
}

func WithIntegrationStore(store IntegrationStore) Option {
	return func(b *serviceBuilder) {
		b.integrationStore = store
	}
}

func WithProviderClient(client ProviderClient) Option {
	return func(b *serviceBuilder) {
		if client == nil {
			return
		}
		if b.providerClients == nil {
			b.providerClients = map[ProviderID]ProviderClient{}
		}
		b.providerClients[client.ID()] = client
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("authflow", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		registry:        NewFlowRegistry(),
		credentialCodec: JSONCredentialCodec{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return authflowErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.CallbackURL) != "" {
		layer["callback_url"] = cfg.CallbackURL
	}

	state := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.State.Secret) != "" {
		state["secret"] = cfg.State.Secret
	}
	if includeZero || strings.TrimSpace(cfg.State.SigningKey) != "" {
		state["signing_key"] = cfg.State.SigningKey
	}
	if includeZero || cfg.State.TTL != 0 {
		state["ttl"] = cfg.State.TTL
	}
	if includeZero || cfg.State.MaxSkew != 0 {
		state["max_skew"] = cfg.State.MaxSkew
	}
	if len(state) > 0 {
		layer["state"] = state
	}

	providers := map[string]any{}
	if github := providerLayerMap(cfg.Providers.GitHub.ProviderConfig, includeZero); len(github) > 0 ||
		includeZero || strings.TrimSpace(cfg.Providers.GitHub.InstallationAppName) != "" {
		if includeZero || strings.TrimSpace(cfg.Providers.GitHub.InstallationAppName) != "" {
			github["installation_app_name"] = cfg.Providers.GitHub.InstallationAppName
		}
		providers["github"] = github
	}
	if jira := providerLayerMap(cfg.Providers.Jira, includeZero); len(jira) > 0 {
		providers["jira"] = jira
	}
	if slack := providerLayerMap(cfg.Providers.Slack, includeZero); len(slack) > 0 {
		providers["slack"] = slack
	}
	if len(providers) > 0 {
		layer["providers"] = providers
	}
	return layer
}

func providerLayerMap(cfg ProviderConfig, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ClientID) != "" {
		layer["client_id"] = cfg.ClientID
	}
	if includeZero || strings.TrimSpace(cfg.ClientSecret) != "" {
		layer["client_secret"] = cfg.ClientSecret
	}
	if includeZero || len(cfg.Scopes) > 0 {
		layer["scopes"] = append([]string(nil), cfg.Scopes...)
	}
	if includeZero || len(cfg.MinimalScopes) > 0 {
		layer["minimal_scopes"] = append([]string(nil), cfg.MinimalScopes...)
	}
	return layer
}
