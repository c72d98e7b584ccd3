package core

import (
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestErrorConstructors_AssignStableCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      *goerrors.Error
		code     int
		textCode string
		category goerrors.Category
	}{
		{"transport default", TransportError("dial failed", 0), http.StatusBadGateway, ErrorTransportFailure, goerrors.CategoryExternal},
		{"transport timeout", TransportError("timeout", http.StatusGatewayTimeout), http.StatusGatewayTimeout, ErrorTransportFailure, goerrors.CategoryExternal},
		{"auth", AuthenticationError("no session"), http.StatusUnauthorized, ErrorUnauthorized, goerrors.CategoryAuth},
		{"config", ConfigurationError("missing org", StatusMissingOrganization), http.StatusPreconditionFailed, ErrorConfigurationInvalid, goerrors.CategoryBadInput},
		{"parse", ParseError(stderrors.New("eof"), "bad xml"), http.StatusUnprocessableEntity, ErrorParseFailed, goerrors.CategoryOperation},
		{"internal", InternalError(nil, "boom"), http.StatusInternalServerError, ErrorInternal, goerrors.CategoryInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Fatalf("expected code %d, got %d", tc.code, tc.err.Code)
			}
			if tc.err.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, tc.err.TextCode)
			}
			if tc.err.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, tc.err.Category)
			}
		})
	}
}

func TestStatusFromError(t *testing.T) {
	if status := StatusFromError(nil); status.Error || status.Code != 0 {
		t.Fatalf("expected empty status for nil error, got %+v", status)
	}

	status := StatusFromError(ConfigurationError("No action provided.", StatusMissingDocument))
	if !status.Error || status.Code != http.StatusNotAcceptable || status.Message != "No action provided." {
		t.Fatalf("unexpected status %+v", status)
	}

	status = StatusFromError(stderrors.New("plain failure"))
	if !status.Error || status.Code == 0 {
		t.Fatalf("expected mapped code for plain error, got %+v", status)
	}
}

func TestMapError_FillsMissingEnvelopeFields(t *testing.T) {
	mapped := MapError(goerrors.New("upstream", goerrors.CategoryExternal))
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway, got %d", mapped.Code)
	}
	if mapped.TextCode != ErrorTransportFailure {
		t.Fatalf("expected transport text code, got %q", mapped.TextCode)
	}

	field := FieldValidationError("username", "username is required")
	if field.TextCode != ErrorBadInput || field.Code != http.StatusBadRequest {
		t.Fatalf("unexpected validation envelope %+v", field)
	}
}
