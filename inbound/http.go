package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-authflow/core"
	glog "github.com/goliatone/go-logger/glog"
)

// FlowService is the slice of the authflow service the HTTP surface
// drives.
type FlowService interface {
	BeginFlow(ctx context.Context, req core.BeginFlowRequest) (core.BeginFlowResponse, error)
	HandleCallback(ctx context.Context, provider core.ProviderID, req core.ProviderCallbackRequest) (core.CallbackOutcome, error)
}

// Handler mounts the OAuth entry and callback endpoints. Every
// callback response is a redirect: provider errors, state failures, and
// handler failures all land on an app page with a flash notice, never
// on an error page.
type Handler struct {
	service FlowService
	flash   FlashWriter
	logger  core.Logger
}

type HandlerOption func(*Handler)

func WithFlashWriter(flash FlashWriter) HandlerOption {
	return func(h *Handler) {
		if flash != nil {
			h.flash = flash
		}
	}
}

func WithLogger(logger core.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(service FlowService, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("inbound: flow service is required")
	}
	h := &Handler{
		service: service,
		flash:   CookieFlashWriter{},
		logger:  glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Mount registers the authflow routes on the host's mux.
func (h *Handler) Mount(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/github/login", h.handleLogin)
	mux.HandleFunc("GET /auth/{provider}/callback", h.handleCallback)
	mux.HandleFunc("GET /onboarding/connect/{provider}", h.handleOnboardingConnect)
	mux.HandleFunc("GET /settings/integrations/connect/{provider}", h.handleIntegrationConnect)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.beginFlow(w, r, core.BeginFlowRequest{Kind: core.FlowGitHubLogin}, core.RedirectLogin)
}

func (h *Handler) handleOnboardingConnect(w http.ResponseWriter, r *http.Request) {
	provider := core.ProviderID(strings.ToLower(r.PathValue("provider")))
	h.beginFlow(w, r, core.BeginFlowRequest{
		Kind: core.FlowKind(string(provider) + "_onboarding"),
	}, core.RedirectDashboard)
}

func (h *Handler) handleIntegrationConnect(w http.ResponseWriter, r *http.Request) {
	provider := core.ProviderID(strings.ToLower(r.PathValue("provider")))
	tenantID, err := strconv.ParseInt(r.URL.Query().Get("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		h.redirect(w, r, core.RedirectIntegrations, "select a workspace before connecting", core.NoticeError)
		return
	}
	h.beginFlow(w, r, core.BeginFlowRequest{
		Kind:     core.FlowKind(string(provider) + "_integration"),
		TenantID: &tenantID,
	}, core.RedirectIntegrations)
}

func (h *Handler) beginFlow(w http.ResponseWriter, r *http.Request, req core.BeginFlowRequest, failureTo string) {
	response, err := h.service.BeginFlow(r.Context(), req)
	if err != nil {
		h.logger.Warn("begin flow rejected", "flow_kind", string(req.Kind), "error", err)
		h.redirect(w, r, failureTo, "could not start authorization, please try again", core.NoticeError)
		return
	}
	http.Redirect(w, r, response.URL, http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	provider := core.ProviderID(strings.ToLower(r.PathValue("provider")))
	query := r.URL.Query()

	outcome, err := h.service.HandleCallback(r.Context(), provider, core.ProviderCallbackRequest{
		State:            query.Get("state"),
		Code:             query.Get("code"),
		ErrorCode:        query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	})
	if err != nil {
		h.logger.Error("callback dispatch failed", "provider", string(provider), "error", err)
		h.redirect(w, r, core.RedirectHome, "something went wrong, please try again", core.NoticeError)
		return
	}
	h.redirect(w, r, outcome.RedirectTo, outcome.Notice, outcome.Level)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string, notice string, level core.NoticeLevel) {
	if h.flash != nil && notice != "" {
		h.flash.Write(w, r, notice, level)
	}
	if to == "" {
		to = core.RedirectHome
	}
	http.Redirect(w, r, to, http.StatusFound)
}
