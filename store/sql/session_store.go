package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultScopeKey names the session row shared by every request of a site.
const DefaultScopeKey = "default"

type SessionStore struct {
	db       *bun.DB
	repo     repository.Repository[*sessionRecord]
	scopeKey string
	now      func() time.Time
}

func NewSessionStore(db *bun.DB, scopeKey string) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	return &SessionStore{
		db:       db,
		repo:     repo,
		scopeKey: normalizeKey(scopeKey, DefaultScopeKey),
		now:      time.Now,
	}, nil
}

func (s *SessionStore) Get(ctx context.Context) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("sqlstore: session store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("scope_key", "=", s.scopeKey),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return strings.TrimSpace(records[0].Token), nil
}

// Set replaces the stored token. An empty token clears the session.
func (s *SessionStore) Set(ctx context.Context, token string) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	now := s.now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing sessionRecord
		err := tx.NewSelect().
			Model(&existing).
			Where("?TableAlias.scope_key = ?", s.scopeKey).
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = s.repo.CreateTx(ctx, tx, &sessionRecord{
				ID:        uuid.NewString(),
				ScopeKey:  s.scopeKey,
				Token:     token,
				CreatedAt: now,
				UpdatedAt: now,
			})
			return err
		case err != nil:
			return err
		}
		_, err = tx.NewUpdate().
			Model((*sessionRecord)(nil)).
			Set("token = ?", token).
			Set("updated_at = ?", now).
			Where("scope_key = ?", s.scopeKey).
			Exec(ctx)
		return err
	})
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*sessionRecord)(nil)).
		Where("scope_key = ?", s.scopeKey).
		Exec(ctx)
	return err
}
