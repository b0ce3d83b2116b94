package authflow

import "github.com/goliatone/go-authflow/core"

type Config = core.Config

type ProviderConfig = core.ProviderConfig

type StateConfig = core.StateConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type FlowKind = core.FlowKind
type ProviderID = core.ProviderID
type FlowRegistry = core.FlowRegistry
type StateTokenCodec = core.StateTokenCodec

type BeginFlowRequest = core.BeginFlowRequest
type BeginFlowResponse = core.BeginFlowResponse
type ProviderCallbackRequest = core.ProviderCallbackRequest
type CallbackOutcome = core.CallbackOutcome

type ProviderClient = core.ProviderClient
type LoginProviderClient = core.LoginProviderClient
type SessionManager = core.SessionManager
type TaskEnqueuer = core.TaskEnqueuer
type CredentialCipher = core.CredentialCipher
type CredentialCodec = core.CredentialCodec
type StoreProvider = core.StoreProvider

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithFlowRegistry      = core.WithFlowRegistry
	WithStateTokenCodec   = core.WithStateTokenCodec
	WithCredentialCodec   = core.WithCredentialCodec
	WithCredentialCipher  = core.WithCredentialCipher
	WithSessionManager    = core.WithSessionManager
	WithTaskEnqueuer      = core.WithTaskEnqueuer
	WithSlugFunc          = core.WithSlugFunc
	WithUserStore         = core.WithUserStore
	WithIdentityStore     = core.WithIdentityStore
	WithTenantStore       = core.WithTenantStore
	WithMembershipStore   = core.WithMembershipStore
	WithCredentialStore   = core.WithCredentialStore
	WithIntegrationStore  = core.WithIntegrationStore
	WithProviderClient    = core.WithProviderClient
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
