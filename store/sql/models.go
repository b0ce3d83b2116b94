package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type userRecord struct {
	bun.BaseModel `bun:"table:authflow_users,alias:au"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull"`
	FirstName string    `bun:"first_name"`
	LastName  string    `bun:"last_name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type identityRecord struct {
	bun.BaseModel `bun:"table:authflow_identities,alias:ai"`

	ID         string    `bun:"id,pk"`
	Provider   string    `bun:"provider,notnull"`
	ExternalID string    `bun:"external_id,notnull"`
	Handle     string    `bun:"handle"`
	UserID     int64     `bun:"user_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type tenantRecord struct {
	bun.BaseModel `bun:"table:authflow_tenants,alias:at"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Slug      string    `bun:"slug,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type membershipRecord struct {
	bun.BaseModel `bun:"table:authflow_memberships,alias:am"`

	ID        string    `bun:"id,pk"`
	TenantID  int64     `bun:"tenant_id,notnull"`
	UserID    int64     `bun:"user_id,notnull"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:authflow_credentials,alias:ac"`

	ID               string     `bun:"id,pk"`
	TenantID         int64      `bun:"tenant_id,notnull"`
	Provider         string     `bun:"provider,notnull"`
	EncryptedPayload []byte     `bun:"encrypted_payload,notnull"`
	PayloadFormat    string     `bun:"payload_format,notnull"`
	PayloadVersion   int        `bun:"payload_version,notnull"`
	TokenType        string     `bun:"token_type"`
	ExpiresAt        *time.Time `bun:"expires_at,nullzero"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type integrationRecord struct {
	bun.BaseModel `bun:"table:authflow_integrations,alias:aig"`

	ID           string    `bun:"id,pk"`
	TenantID     int64     `bun:"tenant_id,notnull"`
	Provider     string    `bun:"provider,notnull"`
	ResourceID   string    `bun:"resource_id,notnull"`
	ResourceName string    `bun:"resource_name"`
	ResourceURL  string    `bun:"resource_url"`
	CredentialID string    `bun:"credential_id"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
