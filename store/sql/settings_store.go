package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-r25live/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultSiteKey identifies the credential row used when a deployment keeps a
// single set of 25Live settings.
const DefaultSiteKey = "default"

type SettingsStore struct {
	db      *bun.DB
	repo    repository.Repository[*settingsRecord]
	siteKey string
	now     func() time.Time
}

func NewSettingsStore(db *bun.DB, siteKey string) (*SettingsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*settingsRecord](db, settingsHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid settings repository wiring: %w", err)
		}
	}
	return &SettingsStore{
		db:      db,
		repo:    repo,
		siteKey: normalizeKey(siteKey, DefaultSiteKey),
		now:     time.Now,
	}, nil
}

func (s *SettingsStore) SiteKey() string {
	if s == nil {
		return ""
	}
	return s.siteKey
}

// Load returns the stored credential, or an empty one when nothing has been
// saved yet.
func (s *SettingsStore) Load(ctx context.Context) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: settings store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_key", "=", s.siteKey),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Credential{}, err
	}
	if len(records) == 0 {
		return core.Credential{}, nil
	}
	return records[0].toDomain(), nil
}

func (s *SettingsStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: settings store is not configured")
	}
	credential = credential.Normalized()
	if err := credential.Validate(); err != nil {
		return err
	}
	now := s.now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.exists(ctx, tx)
		if err != nil {
			return err
		}
		if !exists {
			record := newSettingsRecord(uuid.NewString(), s.siteKey, credential, now)
			if _, createErr := s.repo.CreateTx(ctx, tx, record); createErr != nil {
				if !isUniqueViolation(createErr) {
					return createErr
				}
			} else {
				return nil
			}
		}
		_, err = tx.NewUpdate().
			Model((*settingsRecord)(nil)).
			Set("username = ?", credential.Username).
			Set("encrypted_password = ?", credential.EncryptedPassword).
			Set("encryption_key = ?", credential.EncryptionKey).
			Set("organization_code = ?", credential.OrganizationCode).
			Set("updated_at = ?", now).
			Where("site_key = ?", s.siteKey).
			Exec(ctx)
		return err
	})
}

func (s *SettingsStore) exists(ctx context.Context, tx bun.Tx) (bool, error) {
	var existing settingsRecord
	err := tx.NewSelect().
		Model(&existing).
		Where("?TableAlias.site_key = ?", s.siteKey).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func normalizeKey(value string, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
