package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStateEmpty         = errors.New("core: state token is empty")
	ErrStateSignature     = errors.New("core: state token signature mismatch")
	ErrStateMalformed     = errors.New("core: state token payload is malformed")
	ErrStateUnknownFlow   = errors.New("core: state token flow kind is unknown")
	ErrStateMissingIssued = errors.New("core: state token issued-at is missing")
	ErrStateExpired       = errors.New("core: state token expired")
	ErrStateFuture        = errors.New("core: state token issued in the future")
	ErrStateTenantMissing = errors.New("core: state token requires a tenant id")
	ErrStateTenantPresent = errors.New("core: state token forbids a tenant id")

	ErrTenantNotFound   = errors.New("core: tenant not found")
	ErrNotMember        = errors.New("core: caller is not a member of the tenant")
	ErrNotAuthenticated = errors.New("core: caller is not authenticated")

	ErrProviderDenied   = errors.New("core: provider reported an authorization error")
	ErrNoCode           = errors.New("core: callback carries no authorization code")
	ErrExchangeFailed   = errors.New("core: authorization code exchange failed")
	ErrListingFailed    = errors.New("core: provider resource listing failed")
	ErrNoResourcesFound = errors.New("core: provider returned no resources")
)

// ProviderID identifies one of the external hosts the module can attach
// a tenant to.
type ProviderID string

const (
	ProviderGitHub ProviderID = "github"
	ProviderJira   ProviderID = "jira"
	ProviderSlack  ProviderID = "slack"
)

func (p ProviderID) Valid() bool {
	switch p {
	case ProviderGitHub, ProviderJira, ProviderSlack:
		return true
	}
	return false
}

// MembershipRole is the role a user holds inside a tenant.
type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExternalIdentity links a local user to a provider-side account. It is
// the record consulted first when resolving a login callback.
type ExternalIdentity struct {
	ID         string
	Provider   ProviderID
	ExternalID string
	Handle     string
	UserID     int64
	CreatedAt  time.Time
}

type Tenant struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Membership struct {
	ID        string
	TenantID  int64
	UserID    int64
	Role      MembershipRole
	CreatedAt time.Time
}

// Credential is the persisted, encrypted OAuth token material owned by
// a (tenant, provider) pair. One row per pair, upserted in place.
type Credential struct {
	ID               string
	TenantID         int64
	Provider         ProviderID
	EncryptedPayload []byte
	PayloadFormat    string
	PayloadVersion   int
	TokenType        string
	ExpiresAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Integration is the persisted link between a tenant and a specific
// provider resource, distinct from the credential that grants access to
// it.
type Integration struct {
	ID           string
	TenantID     int64
	Provider     ProviderID
	ResourceID   string
	ResourceName string
	ResourceURL  string
	CredentialID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderToken is the outcome of an authorization-code exchange.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	GrantedScope string
}

func (t ProviderToken) ExpiresAt(now time.Time) *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	return &at
}

// ProviderResource is the provider-side object a tenant connects to: an
// organization, a site, or a workspace.
type ProviderResource struct {
	ID   string
	Name string
	URL  string
}

// ExternalProfile is the identity fetched from the login-capable
// provider.
type ExternalProfile struct {
	ID          string
	Handle      string
	Email       string
	DisplayName string
}

// PendingSelection carries the candidate list (and the already-exchanged
// token) from a multi-resource callback to the selection step. It is
// addressed through the caller's session, never through process state.
type PendingSelection struct {
	Kind      FlowKind
	Provider  ProviderID
	TenantID  *int64
	Token     ProviderToken
	Resources []ProviderResource
	StashedAt time.Time
}

type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
}

type CreateIdentityInput struct {
	Provider   ProviderID
	ExternalID string
	Handle     string
	UserID     int64
}

type CreateTenantInput struct {
	Name string
	Slug string
}

type AddMembershipInput struct {
	TenantID int64
	UserID   int64
	Role     MembershipRole
}

type UpsertCredentialInput struct {
	TenantID         int64
	Provider         ProviderID
	EncryptedPayload []byte
	PayloadFormat    string
	PayloadVersion   int
	TokenType        string
	ExpiresAt        *time.Time
}

type UpsertIntegrationInput struct {
	TenantID     int64
	Provider     ProviderID
	ResourceID   string
	ResourceName string
	ResourceURL  string
	CredentialID string
}

const maxNameSegmentLength = 30

// SplitDisplayName splits a provider display name into first/last at the
// first whitespace run, truncating each segment. A single-word name maps
// to first name only.
func SplitDisplayName(displayName string) (string, string) {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return "", ""
	}
	first, last := trimmed, ""
	if idx := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' }); idx >= 0 {
		first = trimmed[:idx]
		last = strings.TrimSpace(trimmed[idx+1:])
	}
	return truncateName(first), truncateName(last)
}

func truncateName(value string) string {
	runes := []rune(value)
	if len(runes) <= maxNameSegmentLength {
		return value
	}
	return string(runes[:maxNameSegmentLength])
}

// PlaceholderEmail derives the deterministic fallback address used when
// a provider identity exposes no email.
func PlaceholderEmail(handle string, provider ProviderID) string {
	handle = strings.TrimSpace(strings.ToLower(handle))
	return fmt.Sprintf("%s@users.noreply.%s.local", handle, provider)
}
