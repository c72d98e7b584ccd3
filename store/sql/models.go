package sqlstore

import (
	"time"

	"github.com/goliatone/go-r25live/core"
	"github.com/uptrace/bun"
)

type settingsRecord struct {
	bun.BaseModel `bun:"table:r25live_settings,alias:rs"`

	ID                string    `bun:"id,pk"`
	SiteKey           string    `bun:"site_key,notnull"`
	Username          string    `bun:"username,notnull"`
	EncryptedPassword string    `bun:"encrypted_password,notnull"`
	EncryptionKey     string    `bun:"encryption_key,notnull"`
	OrganizationCode  string    `bun:"organization_code,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type sessionRecord struct {
	bun.BaseModel `bun:"table:r25live_sessions,alias:rse"`

	ID        string    `bun:"id,pk"`
	ScopeKey  string    `bun:"scope_key,notnull"`
	Token     string    `bun:"token,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newSettingsRecord(id string, siteKey string, credential core.Credential, now time.Time) *settingsRecord {
	return &settingsRecord{
		ID:                id,
		SiteKey:           siteKey,
		Username:          credential.Username,
		EncryptedPassword: credential.EncryptedPassword,
		EncryptionKey:     credential.EncryptionKey,
		OrganizationCode:  credential.OrganizationCode,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (r *settingsRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		Username:          r.Username,
		EncryptedPassword: r.EncryptedPassword,
		EncryptionKey:     r.EncryptionKey,
		OrganizationCode:  r.OrganizationCode,
	}.Normalized()
}
