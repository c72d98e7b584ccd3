package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-r25live/core"
)

type SettingsService interface {
	SaveSettings(ctx context.Context, input core.SaveSettingsInput) (core.Credential, error)
}

type SessionService interface {
	Login(ctx context.Context) core.RequestStatus
	ClearSession(ctx context.Context) error
}

type SaveSettingsCommand struct {
	service SettingsService
}

func NewSaveSettingsCommand(service SettingsService) *SaveSettingsCommand {
	return &SaveSettingsCommand{service: service}
}

func (c *SaveSettingsCommand) Execute(ctx context.Context, msg SaveSettingsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: settings service is required")
	}
	out, err := c.service.SaveSettings(ctx, msg.Input)
	if err != nil {
		return err
	}
	// The encrypted password never leaves the command.
	out.EncryptedPassword = ""
	out.EncryptionKey = ""
	storeResult(ctx, out)
	return nil
}

type LoginCommand struct {
	service SessionService
}

func NewLoginCommand(service SessionService) *LoginCommand {
	return &LoginCommand{service: service}
}

// Execute stores the resulting status even when the handshake fails.
func (c *LoginCommand) Execute(ctx context.Context, _ LoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	status := c.service.Login(ctx)
	storeResult(ctx, status)
	if status.Error {
		return commandStatusError(status)
	}
	return nil
}

type ClearSessionCommand struct {
	service SessionService
}

func NewClearSessionCommand(service SessionService) *ClearSessionCommand {
	return &ClearSessionCommand{service: service}
}

func (c *ClearSessionCommand) Execute(ctx context.Context, _ ClearSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	return c.service.ClearSession(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
