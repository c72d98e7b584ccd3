package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const (
	testOrganization = "acme"
	testUsername     = "jdoe"
	testPassword     = "secret"
	testChallenge    = "abc123"
)

const loginChallengeXML = `<?xml version="1.0" encoding="UTF-8"?>
<r25:login_challenge xmlns:r25="http://www.collegenet.com/r25" pubdate="2024-03-01T10:00:00-05:00">
  <r25:login>
    <r25:challenge>%s</r25:challenge>
    <r25:username></r25:username>
    <r25:response></r25:response>
  </r25:login>
</r25:login_challenge>`

const loginResponseXML = `<?xml version="1.0" encoding="UTF-8"?>
<r25:login_response xmlns:r25="http://www.collegenet.com/r25">
  <r25:login><r25:success>T</r25:success></r25:login>
</r25:login_response>`

const twoReservationsXML = `<?xml version="1.0" encoding="UTF-8"?>
<r25:reservations xmlns:r25="http://www.collegenet.com/r25">
  <r25:reservation>
    <r25:event_start_dt>2024-03-05T14:30:00-05:00</r25:event_start_dt>
    <r25:event_end_dt>2024-03-05T16:00:00-05:00</r25:event_end_dt>
    <r25:event>
      <r25:event_id>101</r25:event_id>
      <r25:event_name>Spring Concert</r25:event_name>
      <r25:event_text>
        <r25:text_type_id>1</r25:text_type_id>
        <r25:text>Annual &amp; free.</r25:text>
      </r25:event_text>
      <r25:event_text>
        <r25:text_type_id>2</r25:text_type_id>
        <r25:text>Internal note</r25:text>
      </r25:event_text>
    </r25:event>
    <r25:space_reservation>
      <r25:space><r25:formal_name>Main Hall</r25:formal_name></r25:space>
    </r25:space_reservation>
    <r25:space_reservation>
      <r25:space><r25:formal_name>Annex</r25:formal_name></r25:space>
    </r25:space_reservation>
  </r25:reservation>
  <r25:reservation>
    <r25:event_start_dt>2024-03-06T09:00:00</r25:event_start_dt>
    <r25:event_end_dt>2024-03-06T10:15:00</r25:event_end_dt>
    <r25:event>
      <r25:event_id>102</r25:event_id>
      <r25:event_name>Board Meeting</r25:event_name>
      <r25:event_text>
        <r25:text_type_id>2</r25:text_type_id>
        <r25:text>Not shown</r25:text>
      </r25:event_text>
    </r25:event>
  </r25:reservation>
</r25:reservations>`

// fakeR25 emulates the login handshake and the reservations document.
type fakeR25 struct {
	mu sync.Mutex

	password  string
	challenge string
	body      string
	issued    int
	valid     map[string]bool
	forced    []int
	rotate    bool

	loginGets        int
	loginPosts       int
	reservationCalls int
	lastQuery        url.Values
	lastCookie       string
	lastMethod       string
}

func newFakeR25(t *testing.T) (*fakeR25, *httptest.Server) {
	t.Helper()
	fake := &fakeR25{
		password:  testPassword,
		challenge: testChallenge,
		body:      twoReservationsXML,
		valid:     map[string]bool{},
	}
	server := httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(server.Close)
	return fake, server
}

func (f *fakeR25) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/" + testOrganization + "/run/" + LoginDocument:
		f.serveLogin(w, r)
	case "/" + testOrganization + "/run/" + ReservationsDocument:
		f.reservationCalls++
		f.lastQuery = r.URL.Query()
		f.lastCookie = r.Header.Get("Cookie")
		f.lastMethod = r.Method
		if len(f.forced) > 0 {
			code := f.forced[0]
			f.forced = f.forced[1:]
			w.WriteHeader(code)
			return
		}
		if !f.authorized(r.Header.Get("Cookie")) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.rotate {
			f.issued++
			value := fmt.Sprintf("sess-%d", f.issued)
			f.valid[DefaultSessionCookiePrefix+"="+value] = true
			http.SetCookie(w, &http.Cookie{Name: DefaultSessionCookiePrefix, Value: value, Path: "/"})
		}
		w.Header().Set("Content-Type", ContentTypeXML)
		_, _ = io.WriteString(w, f.body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeR25) serveLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f.loginGets++
		http.SetCookie(w, &http.Cookie{Name: "BALANCER", Value: "node-1", Path: "/"})
		_, _ = fmt.Fprintf(w, loginChallengeXML, f.challenge)
		return
	}
	f.loginPosts++
	payload, _ := io.ReadAll(r.Body)
	expected := "<r25:response>" + ChallengeResponse(f.password, f.challenge) + "</r25:response>"
	if strings.Contains(string(payload), expected) &&
		strings.Contains(string(payload), "<r25:username>"+testUsername+"</r25:username>") &&
		strings.Contains(r.Header.Get("Cookie"), "BALANCER=node-1") {
		f.issued++
		value := fmt.Sprintf("sess-%d", f.issued)
		f.valid[DefaultSessionCookiePrefix+"="+value] = true
		http.SetCookie(w, &http.Cookie{Name: DefaultSessionCookiePrefix, Value: value, Path: "/", HttpOnly: true})
	}
	_, _ = io.WriteString(w, loginResponseXML)
}

func (f *fakeR25) authorized(cookieHeader string) bool {
	for _, part := range strings.Split(cookieHeader, ";") {
		if f.valid[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

func (f *fakeR25) accept(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid[token] = true
}

func (f *fakeR25) force(codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = append(f.forced, codes...)
}

func (f *fakeR25) counts() (loginGets int, loginPosts int, reservations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginGets, f.loginPosts, f.reservationCalls
}

// httpTestTransport is a minimal TransportAdapter over net/http.
type httpTestTransport struct {
	client *http.Client
	calls  int
}

func (t *httpTestTransport) Kind() string { return "test" }

func (t *httpTestTransport) Do(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	t.calls++
	target, err := url.Parse(req.URL)
	if err != nil {
		return TransportResponse{}, err
	}
	query := target.Query()
	for key, value := range req.Query {
		query.Set(key, value)
	}
	target.RawQuery = query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return TransportResponse{}, err
	}
	httpReq.Header = req.Headers.Clone()
	client := t.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return TransportResponse{}, TransportError(err.Error(), 0)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TransportResponse{}, err
	}
	return TransportResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// prefixCipher stands in for the AES cipher.
type prefixCipher struct {
	keys int
}

func (c *prefixCipher) GenerateKey() (string, error) {
	c.keys++
	return fmt.Sprintf("key-%d", c.keys), nil
}

func (c *prefixCipher) Encrypt(plaintext string, key string) (string, error) {
	return "enc:" + key + ":" + plaintext, nil
}

func (c *prefixCipher) Decrypt(encoded string, key string) (string, error) {
	prefix := "enc:" + key + ":"
	if !strings.HasPrefix(encoded, prefix) {
		return "", fmt.Errorf("prefix cipher: wrong key")
	}
	return strings.TrimPrefix(encoded, prefix), nil
}

func testCredential() Credential {
	return Credential{
		Username:          testUsername,
		EncryptedPassword: "enc:key-0:" + testPassword,
		EncryptionKey:     "key-0",
		OrganizationCode:  testOrganization,
	}
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return cfg
}

func testDependencies(credential Credential, sessions SessionStore) (ConnectionDependencies, *httpTestTransport) {
	transport := &httpTestTransport{}
	return ConnectionDependencies{
		Settings:  NewMemorySettingsStore(credential),
		Sessions:  sessions,
		Cipher:    &prefixCipher{},
		Transport: transport,
	}, transport
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type failingSessionStore struct {
	err error
}

func (s failingSessionStore) Get(context.Context) (string, error) {
	return "", nil
}

func (s failingSessionStore) Set(context.Context, string) error {
	return s.err
}

func (s failingSessionStore) Clear(context.Context) error {
	return s.err
}

func newStaticServer(t *testing.T, status int, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}
