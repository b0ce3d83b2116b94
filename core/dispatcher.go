package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoticeLevel classifies the flash message carried on a redirect.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "notice"
	NoticeError NoticeLevel = "error"
)

// ProviderCallbackRequest is the decoded query of one provider redirect.
type ProviderCallbackRequest struct {
	State            string
	Code             string
	ErrorCode        string
	ErrorDescription string
}

// CallbackOutcome is how every callback resolves: a redirect target and
// a transient message. A failed flow is still a redirect, never a bare
// error page.
type CallbackOutcome struct {
	RedirectTo string
	Notice     string
	Level      NoticeLevel
	Kind       FlowKind
	Failed     bool
}

// FlowHandler executes the provider-specific work for one flow kind
// after the dispatcher has validated state, provider error, code, and
// authentication.
type FlowHandler interface {
	Handle(ctx context.Context, callback FlowCallback) (CallbackOutcome, error)
}

// FlowCallback is the validated input handed to a flow handler.
type FlowCallback struct {
	Kind     FlowKind
	Provider ProviderID
	TenantID *int64
	Code     string
	UserID   int64
	// SignedIn reports whether UserID came from an authenticated
	// session; false only for login flows.
	SignedIn bool
}

// CallbackDispatcher runs the fixed validation pipeline for one
// provider's callbacks: state, provider error, code, authentication,
// then the flow handler. Each stage either advances or short-circuits
// into a failure redirect; there is no other exit.
type CallbackDispatcher struct {
	provider ProviderID
	registry *FlowRegistry
	codec    *StateTokenCodec
	sessions SessionManager
	handlers map[FlowKind]FlowHandler
	logger   Logger
}

func NewCallbackDispatcher(
	provider ProviderID,
	registry *FlowRegistry,
	codec *StateTokenCodec,
	sessions SessionManager,
	handlers map[FlowKind]FlowHandler,
	logger Logger,
) *CallbackDispatcher {
	if registry == nil {
		registry = NewFlowRegistry()
	}
	return &CallbackDispatcher{
		provider: provider,
		registry: registry,
		codec:    codec,
		sessions: sessions,
		handlers: handlers,
		logger:   logger,
	}
}

// Dispatch validates and routes a callback. It always returns an
// outcome; panics and handler errors degrade to a failure redirect for
// the flow's kind (or home, when the kind never became known).
func (d *CallbackDispatcher) Dispatch(ctx context.Context, req ProviderCallbackRequest) CallbackOutcome {
	startedAt := time.Now().UTC()
	outcome := d.dispatch(ctx, req)
	d.logOutcome(ctx, startedAt, outcome)
	return outcome
}

func (d *CallbackDispatcher) dispatch(ctx context.Context, req ProviderCallbackRequest) CallbackOutcome {
	if d == nil || d.codec == nil {
		return failureOutcome("", RedirectHome, "invalid OAuth state")
	}

	// State first: until the token verifies, nothing else in the query
	// is trusted, including the error and code parameters.
	state, err := d.codec.Decode(req.State)
	if err != nil {
		d.warn(ctx, "callback state rejected", map[string]any{
			"provider": string(d.provider),
			"error":    err.Error(),
		})
		return failureOutcome("", RedirectHome, "invalid OAuth state")
	}
	kind := state.Kind
	failureTo := d.registry.FailureRedirect(kind)

	if d.registry.Provider(kind) != d.provider {
		d.warn(ctx, "callback state bound to another provider", map[string]any{
			"provider":  string(d.provider),
			"flow_kind": string(kind),
		})
		return failureOutcome(kind, RedirectHome, "invalid OAuth state")
	}

	if errCode := strings.TrimSpace(req.ErrorCode); errCode != "" {
		description := strings.TrimSpace(req.ErrorDescription)
		if description == "" {
			description = errCode
		}
		return failureOutcome(kind, failureTo, "authorization failed: "+description)
	}

	if strings.TrimSpace(req.Code) == "" {
		return failureOutcome(kind, failureTo, "no authorization code received")
	}

	callback := FlowCallback{
		Kind:     kind,
		Provider: d.provider,
		TenantID: state.TenantID,
		Code:     strings.TrimSpace(req.Code),
	}
	if !kind.IsLogin() {
		userID, signedIn, sessionErr := d.currentUser(ctx)
		if sessionErr != nil {
			d.warn(ctx, "callback session lookup failed", map[string]any{
				"provider":  string(d.provider),
				"flow_kind": string(kind),
				"error":     sessionErr.Error(),
			})
			return failureOutcome(kind, RedirectLogin, "please log in to continue")
		}
		if !signedIn {
			return failureOutcome(kind, RedirectLogin, "please log in to continue")
		}
		callback.UserID = userID
		callback.SignedIn = true
	}

	handler, ok := d.handlers[kind]
	if !ok || handler == nil {
		d.warn(ctx, "callback has no flow handler", map[string]any{
			"provider":  string(d.provider),
			"flow_kind": string(kind),
		})
		return failureOutcome(kind, failureTo, "something went wrong, please try again")
	}

	outcome, err := d.safeHandle(ctx, handler, callback)
	if err != nil {
		d.warn(ctx, "callback flow handler failed", map[string]any{
			"provider":  string(d.provider),
			"flow_kind": string(kind),
			"error":     err.Error(),
		})
		redirectTo := failureTo
		if IsAccessError(err) {
			redirectTo = RedirectHome
		}
		return failureOutcome(kind, redirectTo, failureNotice(err))
	}
	outcome.Kind = kind
	if outcome.RedirectTo == "" {
		outcome.RedirectTo = failureTo
	}
	if outcome.Level == "" {
		outcome.Level = NoticeInfo
	}
	return outcome
}

func (d *CallbackDispatcher) currentUser(ctx context.Context) (int64, bool, error) {
	if d.sessions == nil {
		return 0, false, fmt.Errorf("core: session manager is not configured")
	}
	return d.sessions.CurrentUserID(ctx)
}

func (d *CallbackDispatcher) safeHandle(ctx context.Context, handler FlowHandler, callback FlowCallback) (outcome CallbackOutcome, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("core: flow handler panicked: %v", recovered)
		}
	}()
	return handler.Handle(ctx, callback)
}

func (d *CallbackDispatcher) logOutcome(ctx context.Context, startedAt time.Time, outcome CallbackOutcome) {
	if d == nil || d.logger == nil {
		return
	}
	fields := map[string]any{
		"provider":    string(d.provider),
		"flow_kind":   string(outcome.Kind),
		"redirect_to": outcome.RedirectTo,
		"failed":      outcome.Failed,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	logger := d.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	if outcome.Failed {
		logger.Warn("callback resolved with failure", flattenFields(fields)...)
		return
	}
	logger.Info("callback resolved", flattenFields(fields)...)
}

func (d *CallbackDispatcher) warn(ctx context.Context, message string, fields map[string]any) {
	if d == nil || d.logger == nil {
		return
	}
	logger := d.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	logger.Warn(message, flattenFields(fields)...)
}

func failureOutcome(kind FlowKind, redirectTo string, notice string) CallbackOutcome {
	return CallbackOutcome{
		RedirectTo: redirectTo,
		Notice:     notice,
		Level:      NoticeError,
		Kind:       kind,
		Failed:     true,
	}
}

// failureNotice maps a handler error to the transient message shown to
// the caller. Flow-level sentinels get specific wording; anything else
// stays generic so internals never leak into a redirect.
func failureNotice(err error) string {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		return "workspace not found"
	case errors.Is(err, ErrNotMember):
		return "you are not a member of that workspace"
	case errors.Is(err, ErrExchangeFailed):
		return "could not complete authorization, please try again"
	case errors.Is(err, ErrListingFailed):
		return "could not load your accounts, please try again"
	case errors.Is(err, ErrNoResourcesFound):
		return "no connectable accounts were found"
	}
	return "something went wrong, please try again"
}
