package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 100

// OnboardingHandler turns one provider resource into a new tenant for a
// caller who has none yet.
type OnboardingHandler struct {
	Client   ProviderClient
	Tenants  TenantStore
	Members  MembershipStore
	Sessions SessionManager
	Service  *Service
}

func (h *OnboardingHandler) Handle(ctx context.Context, callback FlowCallback) (CallbackOutcome, error) {
	if h == nil || h.Client == nil {
		return CallbackOutcome{}, fmt.Errorf("core: provider client %q is not configured", callback.Provider)
	}
	if h.Tenants == nil || h.Members == nil || h.Sessions == nil || h.Service == nil {
		return CallbackOutcome{}, fmt.Errorf("core: onboarding handler collaborators are not configured")
	}

	// Re-running the flow after a workspace already exists is a no-op.
	hasTenant, err := h.Members.HasAnyTenant(ctx, callback.UserID)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: membership lookup: %w", err)
	}
	if hasTenant {
		return CallbackOutcome{
			RedirectTo: RedirectDashboard,
			Notice:     "your workspace is already set up",
			Level:      NoticeInfo,
		}, nil
	}

	token, err := h.Client.ExchangeCode(ctx, callback.Code, h.Service.callbackURL(callback.Provider))
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	resources, err := h.Client.ListResources(ctx, token)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: %v", ErrListingFailed, err)
	}

	switch len(resources) {
	case 0:
		return CallbackOutcome{}, fmt.Errorf("%w: provider %q", ErrNoResourcesFound, callback.Provider)
	case 1:
		return h.createTenant(ctx, callback, token, resources[0])
	default:
		if err := h.Sessions.StashSelection(ctx, PendingSelection{
			Kind:      callback.Kind,
			Provider:  callback.Provider,
			Token:     token,
			Resources: resources,
			StashedAt: time.Now().UTC(),
		}); err != nil {
			return CallbackOutcome{}, fmt.Errorf("core: stash selection: %w", err)
		}
		return CallbackOutcome{
			RedirectTo: RedirectOnboardingSelect,
			Notice:     "choose the account to connect",
			Level:      NoticeInfo,
		}, nil
	}
}

// createTenant runs the single-candidate path: tenant, admin
// membership, credential, integration, then the best-effort sync
// enqueue. All durable writes commit before the enqueue attempt.
func (h *OnboardingHandler) createTenant(ctx context.Context, callback FlowCallback, token ProviderToken, resource ProviderResource) (CallbackOutcome, error) {
	name := strings.TrimSpace(resource.Name)
	if name == "" {
		name = strings.TrimSpace(resource.ID)
	}

	slugValue, err := h.uniqueSlug(ctx, name)
	if err != nil {
		return CallbackOutcome{}, err
	}

	tenant, err := h.Tenants.Create(ctx, CreateTenantInput{Name: name, Slug: slugValue})
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: create tenant: %w", err)
	}

	if _, err := h.Members.Add(ctx, AddMembershipInput{
		TenantID: tenant.ID,
		UserID:   callback.UserID,
		Role:     MembershipRoleAdmin,
	}); err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: add admin membership: %w", err)
	}

	credential, err := h.Service.persistCredential(ctx, tenant.ID, callback.Provider, token)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: persist credential: %w", err)
	}

	if h.Service.integrationStore != nil {
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
	}

	h.Service.EnqueueMembershipSync(ctx, tenant.ID, callback.Provider)

	return CallbackOutcome{
		RedirectTo: RedirectOnboardingSync,
		Notice:     fmt.Sprintf("workspace %q created", name),
		Level:      NoticeInfo,
	}, nil
}

// uniqueSlug derives a slug from the resource name, probing with
// numeric suffixes until the store reports it free.
func (h *OnboardingHandler) uniqueSlug(ctx context.Context, name string) (string, error) {
	slugify := slug.Make
	if h.Service != nil && h.Service.slugify != nil {
		slugify = h.Service.slugify
	}
	base := strings.TrimSpace(slugify(name))
	if base == "" {
		base = "workspace"
	}

	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts; attempt++ {
		exists, err := h.Tenants.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("core: slug lookup: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", fmt.Errorf("core: could not find a free slug for %q", name)
}
