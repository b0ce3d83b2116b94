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

// TenantStore covers the narrow slice of tenant persistence the flows
// need. Full tenant administration stays with the host application.
type TenantStore struct {
	db *bun.DB
}

func NewTenantStore(db *bun.DB) (*TenantStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &TenantStore{db: db}, nil
}

func (s *TenantStore) Get(ctx context.Context, id int64) (core.Tenant, bool, error) {
	if s == nil || s.db == nil {
		return core.Tenant{}, false, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	record := &tenantRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Tenant{}, false, nil
		}
		return core.Tenant{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *TenantStore) Create(ctx context.Context, in core.CreateTenantInput) (core.Tenant, error) {
	if s == nil || s.db == nil {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant name is required")
	}
	if strings.TrimSpace(in.Slug) == "" {
		return core.Tenant{}, fmt.Errorf("sqlstore: tenant slug is required")
	}
	record := newTenantRecord(in, time.Now().UTC())
	if _, err := s.db.NewInsert().
		Model(record).
		Returning("*").
		Exec(ctx); err != nil {
		return core.Tenant{}, err
	}
	return record.toDomain(), nil
}

func (s *TenantStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: tenant store is not configured")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return false, fmt.Errorf("sqlstore: slug is required")
	}
	return s.db.NewSelect().
		Model((*tenantRecord)(nil)).
		Where("?TableAlias.slug = ?", trimmed).
		Exists(ctx)
}
