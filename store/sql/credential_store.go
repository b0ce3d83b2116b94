package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-authflow/core"
	"github.com/uptrace/bun"
)

type CredentialStore struct {
	db *bun.DB
}

func NewCredentialStore(db *bun.DB) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &CredentialStore{db: db}, nil
}

// Upsert writes the encrypted token material for a (tenant, provider)
// pair. The unique index on (tenant_id, provider) makes concurrent
// upserts converge on a single row; the database decides the winner.
func (s *CredentialStore) Upsert(ctx context.Context, in core.UpsertCredentialInput) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if in.TenantID <= 0 {
		return core.Credential{}, fmt.Errorf("sqlstore: tenant id is required")
	}
	if !in.Provider.Valid() {
		return core.Credential{}, fmt.Errorf("sqlstore: provider %q is not supported", in.Provider)
	}
	if len(in.EncryptedPayload) == 0 {
		return core.Credential{}, fmt.Errorf("sqlstore: encrypted payload is required")
	}

	record := newCredentialRecord(in, time.Now().UTC())
	record.ID = newRecordID()

	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (tenant_id, provider) DO UPDATE").
		Set("encrypted_payload = EXCLUDED.encrypted_payload").
		Set("payload_format = EXCLUDED.payload_format").
		Set("payload_version = EXCLUDED.payload_version").
		Set("token_type = EXCLUDED.token_type").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx); err != nil {
		return core.Credential{}, err
	}
	return record.toDomain(), nil
}

func (s *CredentialStore) FindByTenantProvider(ctx context.Context, tenantID int64, provider core.ProviderID) (core.Credential, bool, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, false, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record := &credentialRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Where("?TableAlias.provider = ?", string(provider)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Credential{}, false, nil
		}
		return core.Credential{}, false, err
	}
	return record.toDomain(), true, nil
}
