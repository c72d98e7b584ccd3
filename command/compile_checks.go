package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-r25live/core"
)

var (
	_ gocmd.Commander[SaveSettingsMessage] = (*SaveSettingsCommand)(nil)
	_ gocmd.Commander[LoginMessage]        = (*LoginCommand)(nil)
	_ gocmd.Commander[ClearSessionMessage] = (*ClearSessionCommand)(nil)

	_ SettingsService = (*core.Service)(nil)
	_ SessionService  = (*core.Service)(nil)
)
