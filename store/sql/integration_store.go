package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authflow/core"
	"github.com/uptrace/bun"
)

type IntegrationStore struct {
	db *bun.DB
}

func NewIntegrationStore(db *bun.DB) (*IntegrationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &IntegrationStore{db: db}, nil
}

// Upsert links a tenant to a provider resource. Reconnecting replaces
// the resource fields and credential reference on the existing row, so
// repeated callbacks for the same pair stay single-row.
func (s *IntegrationStore) Upsert(ctx context.Context, in core.UpsertIntegrationInput) (core.Integration, error) {
	if s == nil || s.db == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	if in.TenantID <= 0 {
		return core.Integration{}, fmt.Errorf("sqlstore: tenant id is required")
	}
	if !in.Provider.Valid() {
		return core.Integration{}, fmt.Errorf("sqlstore: provider %q is not supported", in.Provider)
	}
	if strings.TrimSpace(in.ResourceID) == "" {
		return core.Integration{}, fmt.Errorf("sqlstore: resource id is required")
	}

	record := newIntegrationRecord(in, time.Now().UTC())
	record.ID = newRecordID()

	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (tenant_id, provider) DO UPDATE").
		Set("resource_id = EXCLUDED.resource_id").
		Set("resource_name = EXCLUDED.resource_name").
		Set("resource_url = EXCLUDED.resource_url").
		Set("credential_id = EXCLUDED.credential_id").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx); err != nil {
		return core.Integration{}, err
	}
	return record.toDomain(), nil
}

func (s *IntegrationStore) FindByTenantProvider(ctx context.Context, tenantID int64, provider core.ProviderID) (core.Integration, bool, error) {
	if s == nil || s.db == nil {
		return core.Integration{}, false, fmt.Errorf("sqlstore: integration store is not configured")
	}
	record := &integrationRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Where("?TableAlias.provider = ?", string(provider)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Integration{}, false, nil
		}
		return core.Integration{}, false, err
	}
	return record.toDomain(), true, nil
}
