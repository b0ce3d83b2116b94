package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthflowErrorBadInput       = "AUTHFLOW_BAD_INPUT"
	AuthflowErrorStateInvalid   = "AUTHFLOW_STATE_INVALID"
	AuthflowErrorProviderFailed = "AUTHFLOW_PROVIDER_FAILED"
	AuthflowErrorAccessDenied   = "AUTHFLOW_ACCESS_DENIED"
	AuthflowErrorNotFound       = "AUTHFLOW_NOT_FOUND"
	AuthflowErrorInternal       = "AUTHFLOW_INTERNAL_ERROR"
)

// IsStateError reports whether err belongs to the state-token failure
// family; these are terminal and never auto-retried.
func IsStateError(err error) bool {
	for _, candidate := range []error{
		ErrStateEmpty, ErrStateSignature, ErrStateMalformed, ErrStateUnknownFlow,
		ErrStateMissingIssued, ErrStateExpired, ErrStateFuture,
		ErrStateTenantMissing, ErrStateTenantPresent,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// IsProviderError reports whether err originated from a provider
// interaction: reported error, failed exchange, or failed listing.
func IsProviderError(err error) bool {
	for _, candidate := range []error{
		ErrProviderDenied, ErrNoCode, ErrExchangeFailed, ErrListingFailed, ErrNoResourcesFound,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// IsAccessError reports whether err is a tenant-ownership failure.
func IsAccessError(err error) bool {
	return errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrNotMember) ||
		errors.Is(err, ErrNotAuthenticated)
}

func authflowErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthflowErrorEnvelope(richErr)
	}

	switch {
	case IsStateError(err):
		return newAuthflowError(err.Error(), goerrors.CategoryAuth, AuthflowErrorStateInvalid)
	case errors.Is(err, ErrTenantNotFound):
		return newAuthflowError(err.Error(), goerrors.CategoryNotFound, AuthflowErrorNotFound)
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotAuthenticated):
		return newAuthflowError(err.Error(), goerrors.CategoryAuthz, AuthflowErrorAccessDenied)
	case IsProviderError(err):
		return newAuthflowError(err.Error(), goerrors.CategoryOperation, AuthflowErrorProviderFailed)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newAuthflowError(err.Error(), goerrors.CategoryBadInput, AuthflowErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthflowErrorEnvelope(mapped)
}

func newAuthflowError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthflowErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAuthflowErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authflowHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthflowTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthflowTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthflowErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthflowErrorNotFound
	case goerrors.CategoryAuth:
		return AuthflowErrorStateInvalid
	case goerrors.CategoryAuthz:
		return AuthflowErrorAccessDenied
	case goerrors.CategoryOperation, goerrors.CategoryExternal:
		return AuthflowErrorProviderFailed
	default:
		return AuthflowErrorInternal
	}
}

func authflowHTTPStatus(category goerrors.Category) int {
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
	case goerrors.CategoryOperation, goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
