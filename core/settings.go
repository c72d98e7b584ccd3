package core

import (
	"context"
	"fmt"
	"strings"
)

// SettingsService writes the credential record. A new password always gets
// a freshly generated key.
type SettingsService struct {
	provider SettingsProvider
	writer   SettingsWriter
	sessions SessionStore
	cipher   Cipher
}

func NewSettingsService(
	provider SettingsProvider,
	writer SettingsWriter,
	sessions SessionStore,
	cipher Cipher,
) (*SettingsService, error) {
	switch {
	case provider == nil:
		return nil, fmt.Errorf("core: settings provider is required")
	case writer == nil:
		return nil, fmt.Errorf("core: settings writer is required")
	case cipher == nil:
		return nil, fmt.Errorf("core: cipher is required")
	}
	return &SettingsService{
		provider: provider,
		writer:   writer,
		sessions: sessions,
		cipher:   cipher,
	}, nil
}

func (s *SettingsService) SaveSettings(ctx context.Context, input SaveSettingsInput) (Credential, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	username := strings.TrimSpace(input.Username)
	organization := strings.TrimSpace(input.OrganizationCode)
	password := strings.TrimSpace(input.Password)
	if username == "" {
		return Credential{}, FieldValidationError("username", "username is required")
	}
	if organization == "" {
		return Credential{}, FieldValidationError("organization_code", "organization code is required")
	}

	next := Credential{
		Username:         username,
		OrganizationCode: organization,
	}
	if password != "" {
		key, err := s.cipher.GenerateKey()
		if err != nil {
			return Credential{}, InternalError(err, "failed to generate encryption key")
		}
		encrypted, err := s.cipher.Encrypt(password, key)
		if err != nil {
			return Credential{}, InternalError(err, "failed to encrypt password")
		}
		next.EncryptedPassword = encrypted
		next.EncryptionKey = key
	} else {
		current, err := s.provider.Load(ctx)
		if err != nil {
			return Credential{}, InternalError(err, "failed to load current settings")
		}
		if !current.HasPassword() {
			return Credential{}, FieldValidationError("password", "password is required")
		}
		next.EncryptedPassword = current.EncryptedPassword
		next.EncryptionKey = current.EncryptionKey
	}

	if err := next.Validate(); err != nil {
		return Credential{}, InternalError(err, "credential record is inconsistent")
	}
	if err := s.writer.Save(ctx, next); err != nil {
		return Credential{}, InternalError(err, "failed to save settings")
	}
	if s.sessions != nil {
		if err := s.sessions.Clear(ctx); err != nil {
			return next, InternalError(err, "failed to clear session after settings change")
		}
	}
	return next, nil
}
