package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authflow/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type IdentityStore struct {
	db   *bun.DB
	repo repository.Repository[*identityRecord]
}

func (s *IdentityStore) FindByExternalID(ctx context.Context, provider core.ProviderID, externalID string) (core.ExternalIdentity, bool, error) {
	if s == nil || s.repo == nil {
		return core.ExternalIdentity{}, false, fmt.Errorf("sqlstore: identity store is not configured")
	}
	trimmedExternalID := strings.TrimSpace(externalID)
	if trimmedExternalID == "" {
		return core.ExternalIdentity{}, false, fmt.Errorf("sqlstore: external id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("provider", "=", string(provider)),
		repository.SelectBy("external_id", "=", trimmedExternalID),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.ExternalIdentity{}, false, err
	}
	if len(records) == 0 {
		return core.ExternalIdentity{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

func (s *IdentityStore) Create(ctx context.Context, in core.CreateIdentityInput) (core.ExternalIdentity, error) {
	if s == nil || s.repo == nil {
		return core.ExternalIdentity{}, fmt.Errorf("sqlstore: identity store is not configured")
	}
	if !in.Provider.Valid() {
		return core.ExternalIdentity{}, fmt.Errorf("sqlstore: provider %q is not supported", in.Provider)
	}
	if strings.TrimSpace(in.ExternalID) == "" {
		return core.ExternalIdentity{}, fmt.Errorf("sqlstore: external id is required")
	}
	if in.UserID <= 0 {
		return core.ExternalIdentity{}, fmt.Errorf("sqlstore: user id is required")
	}
	record := newIdentityRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.ExternalIdentity{}, err
	}
	return created.toDomain(), nil
}
