package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// IntegrationHandler attaches a provider to an existing tenant: it
// verifies ownership, upserts the credential, and links the single
// candidate resource (or defers to selection).
type IntegrationHandler struct {
	Client   ProviderClient
	Tenants  TenantStore
	Members  MembershipStore
	Sessions SessionManager
	Service  *Service
}

func (h *IntegrationHandler) Handle(ctx context.Context, callback FlowCallback) (CallbackOutcome, error) {
	if h == nil || h.Client == nil {
		return CallbackOutcome{}, fmt.Errorf("core: provider client %q is not configured", callback.Provider)
	}
	if h.Tenants == nil || h.Members == nil || h.Sessions == nil || h.Service == nil {
		return CallbackOutcome{}, fmt.Errorf("core: integration handler collaborators are not configured")
	}
	if callback.TenantID == nil {
		return CallbackOutcome{}, fmt.Errorf("%w: callback carries no tenant id", ErrTenantNotFound)
	}
	tenantID := *callback.TenantID

	tenant, found, err := h.Tenants.Get(ctx, tenantID)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: tenant lookup: %w", err)
	}
	if !found {
		return CallbackOutcome{}, fmt.Errorf("%w: id %d", ErrTenantNotFound, tenantID)
	}

	isMember, err := h.Members.IsMember(ctx, tenant.ID, callback.UserID)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: membership lookup: %w", err)
	}
	if !isMember {
		return CallbackOutcome{}, fmt.Errorf("%w: tenant %d", ErrNotMember, tenant.ID)
	}

	token, err := h.Client.ExchangeCode(ctx, callback.Code, h.Service.callbackURL(callback.Provider))
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	// The credential is committed before the listing so a listing
	// failure never strands an exchanged token; repeated attempts
	// converge on the same row.
	credential, err := h.Service.persistCredential(ctx, tenant.ID, callback.Provider, token)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: persist credential: %w", err)
	}

	resources, err := h.Client.ListResources(ctx, token)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: %v", ErrListingFailed, err)
	}

	switch len(resources) {
	case 0:
		return CallbackOutcome{}, fmt.Errorf("%w: provider %q", ErrNoResourcesFound, callback.Provider)
	case 1:
		return h.linkResource(ctx, callback, tenant, credential, resources[0])
	default:
		if err := h.Sessions.StashSelection(ctx, PendingSelection{
			Kind:      callback.Kind,
			Provider:  callback.Provider,
			TenantID:  callback.TenantID,
			Token:     token,
			Resources: resources,
			StashedAt: time.Now().UTC(),
		}); err != nil {
			return CallbackOutcome{}, fmt.Errorf("core: stash selection: %w", err)
		}
		return CallbackOutcome{
			RedirectTo: RedirectIntegrationsSelect,
			Notice:     "choose the account to connect",
			Level:      NoticeInfo,
		}, nil
	}
}

func (h *IntegrationHandler) linkResource(ctx context.Context, callback FlowCallback, tenant Tenant, credential Credential, resource ProviderResource) (CallbackOutcome, error) {
	name := strings.TrimSpace(resource.Name)
	if name == "" {
		name = strings.TrimSpace(resource.ID)
	}

	if h.Service.integrationStore == nil {
		return CallbackOutcome{}, fmt.Errorf("core: integration store is required")
	}
	if _, err := h.Service.integrationStore.Upsert(ctx, UpsertIntegrationInput{
		TenantID:     tenant.ID,
		Provider:     callback.Provider,
		ResourceID:   resource.ID,
		ResourceName: name,
		ResourceURL:  resource.URL,
		CredentialID: credential.ID,
	}); err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: upsert integration: %w", err)
	}

	if h.Service.sideEffects != nil {
		h.Service.sideEffects.Enqueue(ctx, TaskKindIntegrationSync, map[string]any{
			"tenant_id": tenant.ID,
			"provider":  string(callback.Provider),
			"resource":  resource.ID,
		})
	}

	return CallbackOutcome{
		RedirectTo: RedirectIntegrations,
		Notice:     fmt.Sprintf("connected %s", name),
		Level:      NoticeInfo,
	}, nil
}
