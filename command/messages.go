package command

import (
	"strings"

	"github.com/goliatone/go-r25live/core"
)

const (
	TypeSaveSettings = "r25live.command.settings.save"
	TypeLogin        = "r25live.command.session.login"
	TypeClearSession = "r25live.command.session.clear"
)

type SaveSettingsMessage struct {
	Input core.SaveSettingsInput
}

func (SaveSettingsMessage) Type() string { return TypeSaveSettings }

// Validate checks the fields the settings form always requires. An empty
// password is accepted and keeps the stored one.
func (m SaveSettingsMessage) Validate() error {
	if strings.TrimSpace(m.Input.Username) == "" {
		return commandValidationError("username", "username is required")
	}
	if strings.TrimSpace(m.Input.OrganizationCode) == "" {
		return commandValidationError("organization_code", "organization code is required")
	}
	return nil
}

type LoginMessage struct{}

func (LoginMessage) Type() string { return TypeLogin }

func (LoginMessage) Validate() error { return nil }

type ClearSessionMessage struct{}

func (ClearSessionMessage) Type() string { return TypeClearSession }

func (ClearSessionMessage) Validate() error { return nil }
