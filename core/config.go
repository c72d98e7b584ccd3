package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultServiceName           = "r25live"
	DefaultRequestTimeoutSeconds = 30
	DefaultMaxResponseBodyBytes  = int64(10 << 20)
	DefaultRefreshSchedule       = "*/15 * * * *"
	DefaultRefreshTTLSeconds     = 900
)

type EventsConfig struct {
	WindowDays   int    `koanf:"window_days" mapstructure:"window_days"`
	EventState   string `koanf:"event_state" mapstructure:"event_state"`
	NodeType     string `koanf:"node_type" mapstructure:"node_type"`
	Scope        string `koanf:"scope" mapstructure:"scope"`
	EventTypeIDs string `koanf:"event_type_ids" mapstructure:"event_type_ids"`
}

type RefreshConfig struct {
	Schedule   string `koanf:"schedule" mapstructure:"schedule"`
	TTLSeconds int    `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
}

type Config struct {
	ServiceName           string        `koanf:"service_name" mapstructure:"service_name"`
	BaseURL               string        `koanf:"base_url" mapstructure:"base_url"`
	SessionCookiePrefix   string        `koanf:"session_cookie_prefix" mapstructure:"session_cookie_prefix"`
	RequestTimeoutSeconds int           `koanf:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	MaxResponseBodyBytes  int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	Timezone              string        `koanf:"timezone" mapstructure:"timezone"`
	Events                EventsConfig  `koanf:"events" mapstructure:"events"`
	Refresh               RefreshConfig `koanf:"refresh" mapstructure:"refresh"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:           DefaultServiceName,
		BaseURL:               DefaultBaseURL,
		SessionCookiePrefix:   DefaultSessionCookiePrefix,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		MaxResponseBodyBytes:  DefaultMaxResponseBodyBytes,
		Timezone:              "UTC",
		Events:                DefaultEventsConfig(),
		Refresh: RefreshConfig{
			Schedule:   DefaultRefreshSchedule,
			TTLSeconds: DefaultRefreshTTLSeconds,
		},
	}
}

func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		WindowDays:   3,
		EventState:   "2",
		NodeType:     "E",
		Scope:        "extended",
		EventTypeIDs: "22+29+33+41+44+43",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return fmt.Errorf("core: base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: base_url %q is invalid", base)
	}
	if strings.TrimSpace(c.SessionCookiePrefix) == "" {
		return fmt.Errorf("core: session_cookie_prefix is required")
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("core: request_timeout_seconds must not be negative")
	}
	if c.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: max_response_body_bytes must not be negative")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(c.Timezone)); err != nil {
		return fmt.Errorf("core: timezone %q is invalid: %w", c.Timezone, err)
	}
	if c.Events.WindowDays <= 0 {
		return fmt.Errorf("core: events.window_days must be positive")
	}
	if c.Refresh.TTLSeconds < 0 {
		return fmt.Errorf("core: refresh.ttl_seconds must not be negative")
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.Refresh.TTLSeconds) * time.Second
}
