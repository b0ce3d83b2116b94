package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// UserStore resolves and creates local actors.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	Create(ctx context.Context, in CreateUserInput) (User, error)
}

// IdentityStore persists the link records between local users and
// provider accounts.
type IdentityStore interface {
	FindByExternalID(ctx context.Context, provider ProviderID, externalID string) (ExternalIdentity, bool, error)
	Create(ctx context.Context, in CreateIdentityInput) (ExternalIdentity, error)
}

// TenantStore exposes the few tenant operations the flows need; broader
// tenant administration lives with the host application.
type TenantStore interface {
	Get(ctx context.Context, id int64) (Tenant, bool, error)
	Create(ctx context.Context, in CreateTenantInput) (Tenant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type MembershipStore interface {
	Add(ctx context.Context, in AddMembershipInput) (Membership, error)
	IsMember(ctx context.Context, tenantID int64, userID int64) (bool, error)
	HasAnyTenant(ctx context.Context, userID int64) (bool, error)
}

// CredentialStore upserts encrypted token material. Concurrent upserts
// for one (tenant, provider) pair must converge to a single row.
type CredentialStore interface {
	Upsert(ctx context.Context, in UpsertCredentialInput) (Credential, error)
	FindByTenantProvider(ctx context.Context, tenantID int64, provider ProviderID) (Credential, bool, error)
}

// IntegrationStore upserts the tenant↔resource link. Same convergence
// contract as CredentialStore.
type IntegrationStore interface {
	Upsert(ctx context.Context, in UpsertIntegrationInput) (Integration, error)
	FindByTenantProvider(ctx context.Context, tenantID int64, provider ProviderID) (Integration, bool, error)
}

// SessionManager is the caller-scoped session collaborator: current
// identity, sign-in after a login flow, and the short-lived stash that
// carries a candidate list to the selection step.
type SessionManager interface {
	CurrentUserID(ctx context.Context) (int64, bool, error)
	SignIn(ctx context.Context, userID int64) error
	StashSelection(ctx context.Context, selection PendingSelection) error
}

// TaskMessage describes one unit of asynchronous follow-on work.
type TaskMessage struct {
	Kind           string
	Payload        map[string]any
	IdempotencyKey string
}

// TaskEnqueuer hands a task to the background queue. Implementations
// may fail; the SideEffectDispatcher owns swallowing those failures.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, msg *TaskMessage) error
}

// AsyncTaskHandle is the opaque fire-and-forget reference returned by a
// best-effort enqueue.
type AsyncTaskHandle struct {
	TaskKind string
	Accepted bool
}

// ProviderClient is the capability contract every provider client
// fulfils. Implementations live under providers/ and are injected so
// handlers stay testable without network access.
type ProviderClient interface {
	ID() ProviderID
	AuthorizeURL(state string, scopes []string, redirectURI string) string
	ExchangeCode(ctx context.Context, code string, redirectURI string) (ProviderToken, error)
	ListResources(ctx context.Context, token ProviderToken) ([]ProviderResource, error)
}

// LoginProviderClient extends ProviderClient with the identity
// capabilities only the login-capable provider exposes.
type LoginProviderClient interface {
	ProviderClient
	Identity(ctx context.Context, accessToken string) (ExternalProfile, error)
	VerifiedEmail(ctx context.Context, accessToken string) (string, error)
}

// CredentialCodec serializes token material before encryption.
type CredentialCodec interface {
	Format() string
	Version() int
	Encode(token ProviderToken) ([]byte, error)
	Decode(payload []byte) (ProviderToken, error)
}

// CredentialCipher encrypts serialized token material at rest. Key
// management is the host's concern.
type CredentialCipher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// MetricsRecorder mirrors the recorder contract used across goliatone
// services; the default is a no-op.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string)        {}
func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// SlugFunc turns a resource name into a URL slug candidate.
type SlugFunc func(name string) string
