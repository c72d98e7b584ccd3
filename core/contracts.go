package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type SettingsProvider interface {
	Load(ctx context.Context) (Credential, error)
}

type SettingsWriter interface {
	Save(ctx context.Context, credential Credential) error
}

type SettingsStore interface {
	SettingsProvider
	SettingsWriter
}

// SessionStore persists the single active session token. An empty token with
// a nil error means no session exists.
type SessionStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type StoreProvider interface {
	SettingsStore() SettingsStore
	SessionStore() SessionStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type Cipher interface {
	GenerateKey() (string, error)
	Encrypt(plaintext string, key string) (string, error)
	Decrypt(encoded string, key string) (string, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              http.Header
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Metadata   map[string]any
}

func (r TransportResponse) SetCookies() []string {
	if r.Headers == nil {
		return nil
	}
	return append([]string(nil), r.Headers.Values("Set-Cookie")...)
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type EventsFetcher interface {
	FetchEvents(ctx context.Context, params map[string]string) EventsResult
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

// JobDisposition says what happens to a nacked delivery.
type JobDisposition string

const (
	JobDispositionRetry      JobDisposition = "retry"
	JobDispositionDeadLetter JobDisposition = "dead_letter"
	JobDispositionFailed     JobDisposition = "failed"
)

type JobNackOptions struct {
	Disposition JobDisposition
	Delay       time.Duration
	Reason      string
}

type JobReceipt struct {
	DispatchID string
	EnqueuedAt time.Time
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) (JobReceipt, error)
}

// JobDelivery is one leased message. Attempts counts deliveries of the
// message including this one.
type JobDelivery interface {
	Message() *JobExecutionMessage
	Attempts() int
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
