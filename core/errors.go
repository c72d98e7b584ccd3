package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTransportFailure     = "R25_TRANSPORT_FAILURE"
	ErrorUnauthorized         = "R25_UNAUTHORIZED"
	ErrorConfigurationInvalid = "R25_CONFIGURATION_INVALID"
	ErrorParseFailed          = "R25_PARSE_FAILED"
	ErrorCipherInvalid        = "R25_CIPHER_INVALID"
	ErrorBadInput             = "R25_BAD_INPUT"
	ErrorInternal             = "R25_INTERNAL_ERROR"
)

const (
	StatusMissingOrganization = http.StatusPreconditionFailed
	StatusMissingDocument     = http.StatusNotAcceptable
	StatusParseFailure        = http.StatusUnprocessableEntity
)

const requestErrorMessage = "API Request Error"

func TransportError(message string, code int) *goerrors.Error {
	if code <= 0 {
		code = http.StatusBadGateway
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(code).
		WithTextCode(ErrorTransportFailure)
}

func AuthenticationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorUnauthorized)
}

func ConfigurationError(message string, code int) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(code).
		WithTextCode(ErrorConfigurationInvalid)
}

func ParseError(source error, message string) *goerrors.Error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryOperation).
			WithCode(StatusParseFailure).
			WithTextCode(ErrorParseFailed)
	}
	return goerrors.Wrap(source, goerrors.CategoryOperation, message).
		WithCode(StatusParseFailure).
		WithTextCode(ErrorParseFailed)
}

func FieldValidationError(field string, message string) *goerrors.Error {
	return goerrors.NewValidation("core: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

func InternalError(source error, message string) *goerrors.Error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorInternal)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// StatusFromError converts any error into the status record the connection
// exposes. Codes come from the go-errors envelope when present.
func StatusFromError(err error) RequestStatus {
	if err == nil {
		return RequestStatus{}
	}
	rich := MapError(err)
	message := strings.TrimSpace(rich.Message)
	if message == "" {
		message = strings.TrimSpace(err.Error())
	}
	return RequestStatus{
		Error:   true,
		Code:    rich.Code,
		Message: message,
	}
}

func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	case goerrors.CategoryOperation:
		return ErrorParseFailed
	default:
		return ErrorInternal
	}
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return StatusParseFailure
	default:
		return http.StatusInternalServerError
	}
}
