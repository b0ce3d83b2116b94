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

// UserStore persists local actors. Users carry serial ids owned by the
// host schema, so the store talks to bun directly instead of going
// through the uuid-keyed repository helpers.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) (*UserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &UserStore{db: db}, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (core.User, error) {
	if s == nil || s.db == nil {
		return core.User{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	record := &userRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("sqlstore: user %d not found", id)
		}
		return core.User{}, err
	}
	return record.toDomain(), nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (core.User, bool, error) {
	if s == nil || s.db == nil {
		return core.User{}, false, fmt.Errorf("sqlstore: user store is not configured")
	}
	trimmed := strings.TrimSpace(strings.ToLower(email))
	if trimmed == "" {
		return core.User{}, false, fmt.Errorf("sqlstore: email is required")
	}
	record := &userRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = ?", trimmed).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, false, nil
		}
		return core.User{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *UserStore) Create(ctx context.Context, in core.CreateUserInput) (core.User, error) {
	if s == nil || s.db == nil {
		return core.User{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	if strings.TrimSpace(in.Email) == "" {
		return core.User{}, fmt.Errorf("sqlstore: email is required")
	}
	record := newUserRecord(in, time.Now().UTC())
	if _, err := s.db.NewInsert().
		Model(record).
		Returning("*").
		Exec(ctx); err != nil {
		return core.User{}, err
	}
	return record.toDomain(), nil
}
