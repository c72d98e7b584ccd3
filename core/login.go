package core

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"

	"github.com/beevik/etree"
	goerrors "github.com/goliatone/go-errors"
)

// Login runs the challenge-response handshake and persists the resulting
// session token. It starts a fresh cookie jar and is never retried here.
func (c *Connection) Login(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.cookies = nil
	c.ResetStatus()

	credential, err := c.settings.Load(ctx)
	if err != nil {
		c.loginFailed(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load 25Live settings").
			WithCode(StatusMissingOrganization).
			WithTextCode(ErrorConfigurationInvalid))
		return
	}

	challengeBody := c.request(ctx, http.MethodGet, LoginDocument, nil, "")
	if c.status.Error {
		c.logLoginStatus(ctx)
		return
	}

	doc, err := parseXMLDocument(challengeBody)
	if err != nil {
		c.loginFailed(ctx, ParseError(err, "failed to parse login challenge"))
		return
	}
	challengeEl := findDescendant(&doc.Element, "challenge")
	usernameEl := findDescendant(&doc.Element, "username")
	responseEl := findDescendant(&doc.Element, "response")
	if challengeEl == nil || usernameEl == nil || responseEl == nil {
		c.loginFailed(ctx, ParseError(nil, "login challenge is missing required elements"))
		return
	}
	challenge := challengeEl.Text()
	logWithLevel(ctx, c.logger, "debug", "received 25Live login challenge", map[string]any{
		"username": credential.Username,
	})

	password, err := c.cipher.Decrypt(credential.EncryptedPassword, credential.EncryptionKey)
	if err != nil {
		c.loginFailed(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decrypt stored password").
			WithCode(StatusMissingOrganization).
			WithTextCode(ErrorCipherInvalid))
		return
	}

	usernameEl.SetText(credential.Username)
	responseEl.SetText(ChallengeResponse(password, challenge))
	challengeEl.SetText("")
	payload, err := writeLoginDocument(doc)
	if err != nil {
		c.loginFailed(ctx, InternalError(err, "failed to serialize login response"))
		return
	}

	c.request(ctx, http.MethodPost, LoginDocument, nil, payload)
	if c.status.Error {
		c.logLoginStatus(ctx)
		return
	}

	token := c.latestSessionCookie()
	if token == "" {
		c.loginFailed(ctx, AuthenticationError("login response did not include a session cookie"))
		return
	}
	if err := c.sessions.Set(ctx, token); err != nil {
		c.loginFailed(ctx, InternalError(err, "failed to persist session token"))
		return
	}
	c.ensureCookie(token)
	c.ResetStatus()
	logWithLevel(ctx, c.logger, "info", "25Live login succeeded", map[string]any{
		"username": credential.Username,
	})
}

// ChallengeResponse computes md5hex(md5hex(password) + ":" + challenge).
func ChallengeResponse(password string, challenge string) string {
	return md5Hex(md5Hex(password) + ":" + challenge)
}

func md5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

func writeLoginDocument(doc *etree.Document) (string, error) {
	doc.WriteSettings.CanonicalEndTags = true
	return doc.WriteToString()
}

func (c *Connection) loginFailed(ctx context.Context, err error) {
	c.status = StatusFromError(err)
	c.logLoginStatus(ctx)
}

func (c *Connection) logLoginStatus(ctx context.Context) {
	logWithLevel(ctx, c.logger, "error", "25Live login failed", map[string]any{
		"code":    c.status.Code,
		"message": c.status.Message,
	})
}
