package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// StoreProvider exposes the persistence stores a repository factory can
// build for the flows.
type StoreProvider interface {
	UserStore() UserStore
	IdentityStore() IdentityStore
	TenantStore() TenantStore
	MembershipStore() MembershipStore
	CredentialStore() CredentialStore
	IntegrationStore() IntegrationStore
}

// RepositoryStoreFactory builds stores from a persistence client.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// Service owns the flow semantics: issuing state tokens, dispatching
// provider callbacks, and enqueueing follow-on sync work. Everything
// durable or external is an injected collaborator.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	registry          *FlowRegistry
	codec             *StateTokenCodec
	credentialCodec   CredentialCodec
	credentialCipher  CredentialCipher
	sessions          SessionManager
	sideEffects       *SideEffectDispatcher
	slugify           SlugFunc
	userStore         UserStore
	identityStore     IdentityStore
	tenantStore       TenantStore
	membershipStore   MembershipStore
	credentialStore   CredentialStore
	integrationStore  IntegrationStore
	providerClients   map[ProviderID]ProviderClient
	dispatchers       map[ProviderID]*CallbackDispatcher
}

type ServiceDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ErrorFactory     ErrorFactory
	ErrorMapper      ErrorMapper
	Registry         *FlowRegistry
	StateTokenCodec  *StateTokenCodec
	CredentialCodec  CredentialCodec
	CredentialCipher CredentialCipher
	Sessions         SessionManager
	SideEffects      *SideEffectDispatcher
	UserStore        UserStore
	IdentityStore    IdentityStore
	TenantStore      TenantStore
	MembershipStore  MembershipStore
	CredentialStore  CredentialStore
	IntegrationStore IntegrationStore
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("authflow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("authflow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewFlowRegistry()
	}
	if builder.credentialCodec == nil {
		builder.credentialCodec = JSONCredentialCodec{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	codec := builder.codec
	if codec == nil {
		secret := finalConfig.StateSecret()
		if len(secret) == 0 {
			return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: state signing secret is required"))
		}
		codec, err = NewStateTokenCodec(secret, builder.registry)
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
		codec.ttl = finalConfig.State.TTL
		codec.maxSkew = finalConfig.State.MaxSkew
	}

	if builder.repositoryFactory != nil && missingAnyStore(&builder) {
		if factory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			stores, buildErr := factory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			adoptStores(&builder, stores)
		} else if stores, ok := builder.repositoryFactory.(StoreProvider); ok {
			adoptStores(&builder, stores)
		}
	}

	sideEffects := builder.sideEffects
	if sideEffects == nil {
		sideEffects = NewSideEffectDispatcher(builder.enqueuer, logger)
	}

	service := &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		registry:          builder.registry,
		codec:             codec,
		credentialCodec:   builder.credentialCodec,
		credentialCipher:  builder.credentialCipher,
		sessions:          builder.sessions,
		sideEffects:       sideEffects,
		slugify:           builder.slugify,
		userStore:         builder.userStore,
		identityStore:     builder.identityStore,
		tenantStore:       builder.tenantStore,
		membershipStore:   builder.membershipStore,
		credentialStore:   builder.credentialStore,
		integrationStore:  builder.integrationStore,
		providerClients:   builder.providerClients,
	}
	service.dispatchers = service.buildDispatchers()
	return service, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func missingAnyStore(b *serviceBuilder) bool {
	return b.userStore == nil || b.identityStore == nil || b.tenantStore == nil ||
		b.membershipStore == nil || b.credentialStore == nil || b.integrationStore == nil
}

func adoptStores(b *serviceBuilder, stores StoreProvider) {
	if stores == nil {
		return
	}
	if b.userStore == nil {
		b.userStore = stores.UserStore()
	}
	if b.identityStore == nil {
		b.identityStore = stores.IdentityStore()
	}
	if b.tenantStore == nil {
		b.tenantStore = stores.TenantStore()
	}
	if b.membershipStore == nil {
		b.membershipStore = stores.MembershipStore()
	}
	if b.credentialStore == nil {
		b.credentialStore = stores.CredentialStore()
	}
	if b.integrationStore == nil {
		b.integrationStore = stores.IntegrationStore()
	}
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() *FlowRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Codec() *StateTokenCodec {
	if s == nil {
		return nil
	}
	return s.codec
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:           s.logger,
		LoggerProvider:   s.loggerProvider,
		MetricsRecorder:  s.metricsRecorder,
		ErrorFactory:     s.errorFactory,
		ErrorMapper:      s.errorMapper,
		Registry:         s.registry,
		StateTokenCodec:  s.codec,
		CredentialCodec:  s.credentialCodec,
		CredentialCipher: s.credentialCipher,
		Sessions:         s.sessions,
		SideEffects:      s.sideEffects,
		UserStore:        s.userStore,
		IdentityStore:    s.identityStore,
		TenantStore:      s.tenantStore,
		MembershipStore:  s.membershipStore,
		CredentialStore:  s.credentialStore,
		IntegrationStore: s.integrationStore,
	}
}

type BeginFlowRequest struct {
	Kind        FlowKind
	TenantID    *int64
	RedirectURI string
}

type BeginFlowResponse struct {
	URL   string
	State string
}

// BeginFlow issues a signed state token for the kind and builds the
// provider authorize URL. Login flows request the minimal read-only
// scope set; tenant-bearing flows request the provider's full set.
func (s *Service) BeginFlow(ctx context.Context, req BeginFlowRequest) (response BeginFlowResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"flow_kind": string(req.Kind),
		"provider":  string(s.registry.Provider(req.Kind)),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "begin_flow", err, fields)
	}()

	if !s.registry.IsValid(req.Kind) {
		err = s.mapError(fmt.Errorf("%w: %q", ErrStateUnknownFlow, req.Kind))
		return BeginFlowResponse{}, err
	}
	providerID := s.registry.Provider(req.Kind)
	client, ok := s.providerClients[providerID]
	if !ok || client == nil {
		err = s.mapError(fmt.Errorf("core: provider client %q is not configured", providerID))
		return BeginFlowResponse{}, err
	}

	state, encodeErr := s.codec.Encode(req.Kind, req.TenantID)
	if encodeErr != nil {
		err = s.mapError(encodeErr)
		return BeginFlowResponse{}, err
	}

	settings, _ := s.config.ProviderSettings(providerID)
	scopes := settings.Scopes
	if req.Kind.IsLogin() && len(settings.MinimalScopes) > 0 {
		scopes = settings.MinimalScopes
	}
	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = s.callbackURL(providerID)
	}

	return BeginFlowResponse{
		URL:   client.AuthorizeURL(state, scopes, redirectURI),
		State: state,
	}, nil
}

// HandleCallback validates and routes one provider callback, always
// resolving to a redirect outcome; err is non-nil only for wiring
// problems, never for flow-level failures.
func (s *Service) HandleCallback(ctx context.Context, provider ProviderID, req ProviderCallbackRequest) (CallbackOutcome, error) {
	if s == nil {
		return CallbackOutcome{}, fmt.Errorf("core: service is nil")
	}
	dispatcher, ok := s.dispatchers[provider]
	if !ok || dispatcher == nil {
		return CallbackOutcome{}, s.mapError(fmt.Errorf("core: no callback dispatcher for provider %q", provider))
	}
	return dispatcher.Dispatch(ctx, req), nil
}

// EnqueueMembershipSync schedules the asynchronous membership sync for
// a tenant. Best-effort only; see SideEffectDispatcher.
func (s *Service) EnqueueMembershipSync(ctx context.Context, tenantID int64, provider ProviderID) AsyncTaskHandle {
	if s == nil || s.sideEffects == nil {
		return AsyncTaskHandle{TaskKind: TaskKindMembershipSync}
	}
	return s.sideEffects.Enqueue(ctx, TaskKindMembershipSync, map[string]any{
		"tenant_id": tenantID,
		"provider":  string(provider),
	})
}

func (s *Service) callbackURL(provider ProviderID) string {
	base := strings.TrimRight(strings.TrimSpace(s.config.CallbackURL), "/")
	if base == "" {
		return "/auth/" + string(provider) + "/callback"
	}
	return base + "/auth/" + string(provider) + "/callback"
}

func (s *Service) buildDispatchers() map[ProviderID]*CallbackDispatcher {
	dispatchers := map[ProviderID]*CallbackDispatcher{}
	for _, providerID := range []ProviderID{ProviderGitHub, ProviderJira, ProviderSlack} {
		dispatchers[providerID] = s.newDispatcher(providerID)
	}
	return dispatchers
}

func (s *Service) newDispatcher(providerID ProviderID) *CallbackDispatcher {
	handlers := map[FlowKind]FlowHandler{}
	client := s.providerClients[providerID]
	for _, kind := range s.registry.KindsForProvider(providerID) {
		switch {
		case kind.IsLogin():
			loginClient, _ := client.(LoginProviderClient)
			handlers[kind] = &LoginHandler{
				Client:     loginClient,
				Users:      s.userStore,
				Identities: s.identityStore,
				Members:    s.membershipStore,
				Sessions:   s.sessions,
				Service:    s,
			}
		case kind.IsOnboarding():
			handlers[kind] = &OnboardingHandler{
				Client:   client,
				Tenants:  s.tenantStore,
				Members:  s.membershipStore,
				Sessions: s.sessions,
				Service:  s,
			}
		case kind.IsIntegration():
			handlers[kind] = &IntegrationHandler{
				Client:   client,
				Tenants:  s.tenantStore,
				Members:  s.membershipStore,
				Sessions: s.sessions,
				Service:  s,
			}
		}
	}
	return NewCallbackDispatcher(providerID, s.registry, s.codec, s.sessions, handlers, s.logger)
}

// persistCredential encodes, encrypts, and upserts token material for a
// (tenant, provider) pair; repeated calls converge on one row.
func (s *Service) persistCredential(ctx context.Context, tenantID int64, provider ProviderID, token ProviderToken) (Credential, error) {
	if s.credentialStore == nil {
		return Credential{}, fmt.Errorf("core: credential store is required")
	}
	payload, err := s.credentialCodec.Encode(token)
	if err != nil {
		return Credential{}, err
	}
	if s.credentialCipher != nil {
		payload, err = s.credentialCipher.Encrypt(ctx, payload)
		if err != nil {
			return Credential{}, err
		}
	}
	now := time.Now().UTC()
	return s.credentialStore.Upsert(ctx, UpsertCredentialInput{
		TenantID:         tenantID,
		Provider:         provider,
		EncryptedPayload: payload,
		PayloadFormat:    s.credentialCodec.Format(),
		PayloadVersion:   s.credentialCodec.Version(),
		TokenType:        token.TokenType,
		ExpiresAt:        token.ExpiresAt(now),
	})
}
