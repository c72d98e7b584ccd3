package command

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-r25live/core"
)

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorInternal)
}

func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

// commandStatusError turns a failed login status into an error envelope that
// keeps the status code.
func commandStatusError(status core.RequestStatus) error {
	category := goerrors.CategoryExternal
	textCode := core.ErrorTransportFailure
	switch status.Code {
	case http.StatusUnauthorized:
		category, textCode = goerrors.CategoryAuth, core.ErrorUnauthorized
	case core.StatusMissingOrganization, core.StatusMissingDocument:
		category, textCode = goerrors.CategoryBadInput, core.ErrorConfigurationInvalid
	case core.StatusParseFailure:
		category, textCode = goerrors.CategoryOperation, core.ErrorParseFailed
	case http.StatusInternalServerError:
		category, textCode = goerrors.CategoryInternal, core.ErrorInternal
	}
	message := status.Message
	if message == "" {
		message = "command: login failed"
	}
	return goerrors.New(message, category).
		WithCode(status.Code).
		WithTextCode(textCode)
}
