package r25live

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-r25live/adapters/gocommand"
	r25command "github.com/goliatone/go-r25live/command"
	"github.com/goliatone/go-r25live/core"
	r25query "github.com/goliatone/go-r25live/query"
	"github.com/goliatone/go-r25live/render"
)

type ClientService interface {
	r25command.SettingsService
	r25command.SessionService
	r25query.EventsReader
	r25query.UpcomingEventsReader
}

type Commands struct {
	SaveSettings *r25command.SaveSettingsCommand
	Login        *r25command.LoginCommand
	ClearSession *r25command.ClearSessionCommand
}

type Queries struct {
	ListEvents         *r25query.ListEventsQuery
	ListUpcomingEvents *r25query.ListUpcomingEventsQuery
}

// Client bundles the command and query handlers over one service together
// with the events renderer.
type Client struct {
	service  ClientService
	commands Commands
	queries  Queries
	renderer *render.EventsRenderer
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	renderer *render.EventsRenderer
}

func WithRenderer(renderer *render.EventsRenderer) ClientOption {
	return func(options *clientOptions) {
		options.renderer = renderer
	}
}

func NewClient(service ClientService, opts ...ClientOption) (*Client, error) {
	if service == nil {
		return nil, fmt.Errorf("r25live: client service is required")
	}
	cfg := clientOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.renderer == nil {
		cfg.renderer = render.NewEventsRenderer()
	}

	return &Client{
		service: service,
		commands: Commands{
			SaveSettings: r25command.NewSaveSettingsCommand(service),
			Login:        r25command.NewLoginCommand(service),
			ClearSession: r25command.NewClearSessionCommand(service),
		},
		queries: Queries{
			ListEvents:         r25query.NewListEventsQuery(service),
			ListUpcomingEvents: r25query.NewListUpcomingEventsQuery(service),
		},
		renderer: cfg.renderer,
	}, nil
}

// Setup builds the service from cfg and wraps it in a Client with the
// default renderer.
func Setup(cfg Config, opts ...Option) (*Client, error) {
	service, err := NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(service)
}

func (c *Client) Commands() Commands {
	if c == nil {
		return Commands{}
	}
	return c.commands
}

func (c *Client) Queries() Queries {
	if c == nil {
		return Queries{}
	}
	return c.queries
}

func (c *Client) Service() ClientService {
	if c == nil {
		return nil
	}
	return c.service
}

// Handlers exposes the commands and queries in the shape expected by
// gocommand.RegisterHandlers.
func (c *Client) Handlers() gocommand.Handlers {
	if c == nil {
		return gocommand.Handlers{}
	}
	return gocommand.Handlers{
		SaveSettings:       c.commands.SaveSettings,
		Login:              c.commands.Login,
		ClearSession:       c.commands.ClearSession,
		ListEvents:         c.queries.ListEvents,
		ListUpcomingEvents: c.queries.ListUpcomingEvents,
	}
}

// RenderUpcoming lists the window starting at now and renders it. A failed
// fetch renders the heading with no events.
func (c *Client) RenderUpcoming(ctx context.Context, now time.Time) (string, error) {
	if c == nil || c.service == nil {
		return "", fmt.Errorf("r25live: client is not configured")
	}
	events, err := c.queries.ListUpcomingEvents.Query(ctx, r25query.ListUpcomingEventsMessage{Now: now})
	if err != nil {
		return "", err
	}
	return c.renderer.RenderString(events)
}

var _ ClientService = (*core.Service)(nil)
