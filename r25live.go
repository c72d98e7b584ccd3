// Package r25live is a client for the CollegeNet 25Live web services. It
// signs in with the challenge-response handshake, reads reservations for a
// date window, and renders the upcoming events as HTML.
package r25live

import (
	"net/http"
	"time"

	"github.com/goliatone/go-r25live/core"
	"github.com/goliatone/go-r25live/security"
	"github.com/goliatone/go-r25live/transport"
)

type Config = core.Config

type EventsConfig = core.EventsConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Credential = core.Credential

type SaveSettingsInput = core.SaveSettingsInput

type EventRecord = core.EventRecord

type RequestStatus = core.RequestStatus

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithCipher            = core.WithCipher
	WithTransport         = core.WithTransport
	WithSettingsStore     = core.WithSettingsStore
	WithSettingsProvider  = core.WithSettingsProvider
	WithSettingsWriter    = core.WithSettingsWriter
	WithSessionStore      = core.WithSessionStore
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a core service with the AES-CBC cipher and the XML
// transport as defaults. Options passed by the caller take precedence.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	defaults := []Option{
		core.WithCipher(security.NewAESCBCCipher()),
		core.WithTransport(defaultTransport(cfg)),
	}
	return core.NewService(cfg, append(defaults, opts...)...)
}

func defaultTransport(cfg Config) *transport.XMLAdapter {
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeoutSeconds * time.Second
	}
	adapter := transport.NewXMLAdapter(&http.Client{Timeout: timeout})
	if cfg.MaxResponseBodyBytes > 0 {
		adapter.MaxResponseBodyBytes = cfg.MaxResponseBodyBytes
	}
	return adapter
}
