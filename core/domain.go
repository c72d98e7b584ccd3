package core

import (
	"fmt"
	"strings"
)

const (
	DefaultBaseURL             = "https://webservices.collegenet.com/r25ws/wrd"
	DefaultSessionCookiePrefix = "WSSESSIONID"

	LoginDocument        = "login.xml"
	ReservationsDocument = "reservations.xml"

	ContentTypeXML = "text/xml; charset=UTF-8"
)

const (
	StatusKeyError   = "error"
	StatusKeyCode    = "code"
	StatusKeyMessage = "message"
)

// Credential is the persisted account record. The encryption key lives next
// to the ciphertext it protects, which means anyone able to read the record
// can recover the password.
type Credential struct {
	Username          string `json:"username"`
	EncryptedPassword string `json:"encrypted_password"`
	EncryptionKey     string `json:"encryption_key"`
	OrganizationCode  string `json:"organization_code"`
}

func (c Credential) Validate() error {
	hasPassword := strings.TrimSpace(c.EncryptedPassword) != ""
	hasKey := strings.TrimSpace(c.EncryptionKey) != ""
	if hasPassword != hasKey {
		return fmt.Errorf("core: encrypted password and encryption key must be set together")
	}
	return nil
}

func (c Credential) HasPassword() bool {
	return strings.TrimSpace(c.EncryptedPassword) != "" && strings.TrimSpace(c.EncryptionKey) != ""
}

func (c Credential) Normalized() Credential {
	return Credential{
		Username:          strings.TrimSpace(c.Username),
		EncryptedPassword: strings.TrimSpace(c.EncryptedPassword),
		EncryptionKey:     strings.TrimSpace(c.EncryptionKey),
		OrganizationCode:  strings.TrimSpace(c.OrganizationCode),
	}
}

// RequestStatus is reset before every request and set once per attempt.
type RequestStatus struct {
	Error   bool   `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s RequestStatus) Value(key string) any {
	switch strings.TrimSpace(key) {
	case StatusKeyError:
		return s.Error
	case StatusKeyCode:
		return s.Code
	case StatusKeyMessage:
		return s.Message
	default:
		return nil
	}
}

func (s RequestStatus) String() string {
	if !s.Error {
		return fmt.Sprintf("ok (%d)", s.Code)
	}
	return fmt.Sprintf("%d - %s", s.Code, s.Message)
}

type EventRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// EventsResult carries the outcome of a list call, including failures the
// list-only API swallows.
type EventsResult struct {
	Events   []EventRecord
	Status   RequestStatus
	Attempts int
	Relogins int
}

func (r EventsResult) Failed() bool {
	return r.Status.Error
}

type SaveSettingsInput struct {
	Username         string
	Password         string
	OrganizationCode string
}
