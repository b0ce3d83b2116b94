package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-authflow/core"
	"github.com/uptrace/bun"
)

type MembershipStore struct {
	db *bun.DB
}

func NewMembershipStore(db *bun.DB) (*MembershipStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &MembershipStore{db: db}, nil
}

// Add records a tenant membership. Re-adding an existing (tenant, user)
// pair updates the role in place instead of duplicating the row.
func (s *MembershipStore) Add(ctx context.Context, in core.AddMembershipInput) (core.Membership, error) {
	if s == nil || s.db == nil {
		return core.Membership{}, fmt.Errorf("sqlstore: membership store is not configured")
	}
	if in.TenantID <= 0 {
		return core.Membership{}, fmt.Errorf("sqlstore: tenant id is required")
	}
	if in.UserID <= 0 {
		return core.Membership{}, fmt.Errorf("sqlstore: user id is required")
	}

	record := newMembershipRecord(in, time.Now().UTC())
	record.ID = newRecordID()

	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (tenant_id, user_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Returning("*").
		Exec(ctx); err != nil {
		return core.Membership{}, err
	}
	return record.toDomain(), nil
}

func (s *MembershipStore) IsMember(ctx context.Context, tenantID int64, userID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: membership store is not configured")
	}
	return s.db.NewSelect().
		Model((*membershipRecord)(nil)).
		Where("?TableAlias.tenant_id = ?", tenantID).
		Where("?TableAlias.user_id = ?", userID).
		Exists(ctx)
}

func (s *MembershipStore) HasAnyTenant(ctx context.Context, userID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: membership store is not configured")
	}
	return s.db.NewSelect().
		Model((*membershipRecord)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exists(ctx)
}
