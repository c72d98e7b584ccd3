package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type ConnectionDependencies struct {
	Settings  SettingsProvider
	Sessions  SessionStore
	Cipher    Cipher
	Transport TransportAdapter
	Logger    Logger
}

func (d ConnectionDependencies) validate() error {
	switch {
	case d.Settings == nil:
		return fmt.Errorf("core: settings provider is required")
	case d.Sessions == nil:
		return fmt.Errorf("core: session store is required")
	case d.Cipher == nil:
		return fmt.Errorf("core: cipher is required")
	case d.Transport == nil:
		return fmt.Errorf("core: transport adapter is required")
	}
	return nil
}

// Connection is an authenticated session against the 25Live web service.
// It is not safe for concurrent use.
type Connection struct {
	config    Config
	settings  SettingsProvider
	sessions  SessionStore
	cipher    Cipher
	transport TransportAdapter
	logger    Logger

	cookies []string
	status  RequestStatus
}

// NewConnection reuses a stored session token when one exists and performs
// a login otherwise. Login failures are reported through Status.
func NewConnection(ctx context.Context, cfg Config, deps ConnectionDependencies) (*Connection, error) {
	conn, err := newConnection(cfg, deps)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !conn.IsLoggedIn(ctx) {
		conn.Login(ctx)
	}
	return conn, nil
}

func newConnection(cfg Config, deps ConnectionDependencies) (*Connection, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	return &Connection{
		config:    normalizeConnectionConfig(cfg),
		settings:  deps.Settings,
		sessions:  deps.Sessions,
		cipher:    deps.Cipher,
		transport: deps.Transport,
		logger:    logger,
	}, nil
}

func normalizeConnectionConfig(cfg Config) Config {
	defaults := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.SessionCookiePrefix = strings.TrimSpace(cfg.SessionCookiePrefix)
	if cfg.SessionCookiePrefix == "" {
		cfg.SessionCookiePrefix = defaults.SessionCookiePrefix
	}
	return cfg
}

// BuildURI returns <base>/<organization>/run/<document>.
func BuildURI(baseURL string, organizationCode string, document string) (string, error) {
	organizationCode = strings.TrimSpace(organizationCode)
	document = strings.TrimSpace(document)
	if organizationCode == "" {
		return "", ConfigurationError(
			"The Organization code must be entered in the admin settings.",
			StatusMissingOrganization,
		)
	}
	if document == "" {
		return "", ConfigurationError("No action provided.", StatusMissingDocument)
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + "/" + organizationCode + "/run/" + document, nil
}

// Request performs a GET against document and returns the response body. On
// failure the status carries the error and the returned string is the error
// message. Only the login handshake POSTs.
func (c *Connection) Request(ctx context.Context, document string, params map[string]string, body string) string {
	return c.request(ctx, http.MethodGet, document, params, body)
}

func (c *Connection) request(
	ctx context.Context,
	method string,
	document string,
	params map[string]string,
	body string,
) string {
	c.ResetStatus()
	if ctx == nil {
		ctx = context.Background()
	}

	credential, err := c.settings.Load(ctx)
	if err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load 25Live settings").
			WithCode(StatusMissingOrganization).
			WithTextCode(ErrorConfigurationInvalid))
	}
	uri, err := BuildURI(c.config.BaseURL, credential.OrganizationCode, document)
	if err != nil {
		return c.fail(ctx, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", ContentTypeXML)
	headers.Set("Accept", ContentTypeXML)
	if cookie := c.cookieHeader(); cookie != "" {
		headers.Set("Cookie", cookie)
	}
	req := TransportRequest{
		Method:               method,
		URL:                  uri,
		Headers:              headers,
		Query:                cloneParams(params),
		Timeout:              c.config.RequestTimeout(),
		MaxResponseBodyBytes: c.config.MaxResponseBodyBytes,
	}
	if body != "" {
		req.Body = []byte(body)
	}

	response, err := c.transport.Do(ctx, req)
	if err != nil {
		return c.fail(ctx, err)
	}
	if response.StatusCode >= http.StatusMultipleChoices {
		c.status = RequestStatus{
			Error:   true,
			Code:    response.StatusCode,
			Message: requestErrorMessage,
		}
		logWithLevel(ctx, c.logger, "debug", "25Live request returned error status", map[string]any{
			"document": strings.TrimSpace(document),
			"code":     response.StatusCode,
		})
		return c.status.Message
	}

	c.status = RequestStatus{Code: response.StatusCode}
	c.cookies = append(c.cookies, response.SetCookies()...)
	return string(response.Body)
}

func (c *Connection) fail(ctx context.Context, err error) string {
	c.status = StatusFromError(err)
	logWithLevel(ctx, c.logger, "debug", "25Live request failed", map[string]any{
		"code":    c.status.Code,
		"message": c.status.Message,
	})
	return c.status.Message
}

// IsLoggedIn reports whether a session token is stored and makes sure the
// token is part of the cookie jar.
func (c *Connection) IsLoggedIn(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	token, err := c.sessions.Get(ctx)
	if err != nil {
		logWithLevel(ctx, c.logger, "warn", "failed to read 25Live session", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	c.ensureCookie(token)
	return true
}

func (c *Connection) Status() RequestStatus {
	return c.status
}

func (c *Connection) StatusValue(key string) any {
	return c.status.Value(key)
}

func (c *Connection) ResetStatus() {
	c.status = RequestStatus{}
}

func (c *Connection) Cookies() []string {
	return append([]string(nil), c.cookies...)
}

func (c *Connection) SessionValue(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.sessions.Get(ctx)
}

func (c *Connection) cookieHeader() string {
	pairs := make([]string, 0, len(c.cookies))
	for _, raw := range c.cookies {
		if pair := cookiePair(raw); pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}

func (c *Connection) ensureCookie(token string) {
	pair := cookiePair(token)
	if pair == "" {
		return
	}
	for _, raw := range c.cookies {
		if cookiePair(raw) == pair {
			return
		}
	}
	c.cookies = append(c.cookies, token)
}

// latestSessionCookie returns the name=value pair of the most recent cookie
// whose name carries the session prefix.
func (c *Connection) latestSessionCookie() string {
	for i := len(c.cookies) - 1; i >= 0; i-- {
		pair := cookiePair(c.cookies[i])
		name, _, _ := strings.Cut(pair, "=")
		if strings.HasPrefix(strings.TrimSpace(name), c.config.SessionCookiePrefix) {
			return pair
		}
	}
	return ""
}

func cookiePair(raw string) string {
	pair, _, _ := strings.Cut(raw, ";")
	return strings.TrimSpace(pair)
}

func cloneParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for key, value := range params {
		out[key] = value
	}
	return out
}
