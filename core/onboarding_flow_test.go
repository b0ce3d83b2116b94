package core

import (
	"context"
	"errors"
	"testing"
)

func onboardingCallback(t *testing.T, env *testEnvironment, kind FlowKind) ProviderCallbackRequest {
	t.Helper()
	return ProviderCallbackRequest{
		State: env.encodeState(t, kind, nil),
		Code:  "code-123",
	}
}

func TestOnboardingSingleResourceCreatesTenant(t *testing.T) {
	env := newTestEnvironment(t)
	user := env.signedInUser(t, "founder@example.com")
	env.github.resources = []ProviderResource{{ID: "org-1", Name: "Acme Inc", URL: "https://github.com/acme"}}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("onboarding failed: %+v", outcome)
	}
	if outcome.RedirectTo != RedirectOnboardingSync {
		t.Fatalf("redirect = %q, want %q", outcome.RedirectTo, RedirectOnboardingSync)
	}

	if len(env.tenants.tenants) != 1 {
		t.Fatalf("tenants = %d, want 1", len(env.tenants.tenants))
	}
	var tenant Tenant
	for _, candidate := range env.tenants.tenants {
		tenant = candidate
	}
	if tenant.Name != "Acme Inc" || tenant.Slug != "acme-inc" {
		t.Fatalf("tenant = %+v", tenant)
	}

	isAdmin := false
	for _, membership := range env.members.memberships {
		if membership.TenantID == tenant.ID && membership.UserID == user.ID && membership.Role == MembershipRoleAdmin {
			isAdmin = true
		}
	}
	if !isAdmin {
		t.Fatalf("caller is not an admin of the new tenant")
	}

	credential, found, _ := env.credentials.FindByTenantProvider(context.Background(), tenant.ID, ProviderGitHub)
	if !found {
		t.Fatalf("credential not persisted")
	}
	integration, found, _ := env.integrations.FindByTenantProvider(context.Background(), tenant.ID, ProviderGitHub)
	if !found {
		t.Fatalf("integration not persisted")
	}
	if integration.ResourceID != "org-1" || integration.CredentialID != credential.ID {
		t.Fatalf("integration = %+v", integration)
	}

	if len(env.enqueuer.messages) != 1 || env.enqueuer.messages[0].Kind != TaskKindMembershipSync {
		t.Fatalf("membership sync not enqueued: %+v", env.enqueuer.messages)
	}
}

func TestOnboardingIdempotentWhenTenantExists(t *testing.T) {
	env := newTestEnvironment(t)
	user := env.signedInUser(t, "founder@example.com")
	tenant := env.tenants.seed(Tenant{Name: "Existing", Slug: "existing"})
	if _, err := env.members.Add(context.Background(), AddMembershipInput{TenantID: tenant.ID, UserID: user.ID, Role: MembershipRoleAdmin}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed || outcome.RedirectTo != RedirectDashboard {
		t.Fatalf("outcome: %+v", outcome)
	}
	if env.github.exchanges != 0 {
		t.Fatalf("exchange ran for already-onboarded caller")
	}
	if len(env.tenants.tenants) != 1 {
		t.Fatalf("second tenant created")
	}
}

func TestOnboardingZeroResourcesIsError(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.jira.resources = nil

	outcome, err := env.service.HandleCallback(context.Background(), ProviderJira, onboardingCallback(t, env, FlowJiraOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !outcome.Failed {
		t.Fatalf("zero resources did not fail")
	}
	if outcome.RedirectTo != RedirectOnboardingConnect(ProviderJira) {
		t.Fatalf("redirect = %q", outcome.RedirectTo)
	}
	if len(env.tenants.tenants) != 0 {
		t.Fatalf("tenant created despite zero resources")
	}
}

func TestOnboardingMultipleResourcesStashesSelection(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.slack.resources = []ProviderResource{
		{ID: "ws-1", Name: "Team One"},
		{ID: "ws-2", Name: "Team Two"},
	}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderSlack, onboardingCallback(t, env, FlowSlackOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed || outcome.RedirectTo != RedirectOnboardingSelect {
		t.Fatalf("outcome: %+v", outcome)
	}
	if len(env.tenants.tenants) != 0 {
		t.Fatalf("tenant created despite multiple candidates")
	}
	if len(env.sessions.stashed) != 1 {
		t.Fatalf("stashed selections = %d, want 1", len(env.sessions.stashed))
	}
	stash := env.sessions.stashed[0]
	if stash.Kind != FlowSlackOnboarding || stash.Provider != ProviderSlack || len(stash.Resources) != 2 {
		t.Fatalf("stash = %+v", stash)
	}
	if stash.Token.AccessToken != "slack-token" {
		t.Fatalf("stash does not carry the exchanged token")
	}
}

func TestOnboardingSlugCollisionPicksNextSuffix(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.tenants.slugs["acme-inc"] = true
	env.tenants.slugs["acme-inc-2"] = true
	env.github.resources = []ProviderResource{{ID: "org-1", Name: "Acme Inc"}}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("onboarding failed: %+v", outcome)
	}
	for _, tenant := range env.tenants.tenants {
		if tenant.Slug != "acme-inc-3" {
			t.Fatalf("slug = %q, want acme-inc-3", tenant.Slug)
		}
	}
}

func TestOnboardingEnqueueFailureDoesNotUndoWrites(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.enqueuer.err = errors.New("queue is down")
	env.github.resources = []ProviderResource{{ID: "org-1", Name: "Acme Inc"}}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed || outcome.RedirectTo != RedirectOnboardingSync {
		t.Fatalf("enqueue failure leaked into the flow outcome: %+v", outcome)
	}
	if len(env.tenants.tenants) != 1 {
		t.Fatalf("tenant missing after enqueue failure")
	}
	if env.credentials.upserts != 1 || env.integrations.upserts != 1 {
		t.Fatalf("durable writes missing: credentials=%d integrations=%d", env.credentials.upserts, env.integrations.upserts)
	}
}

func TestOnboardingEnqueuePanicDoesNotUndoWrites(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.enqueuer.panicWith = "queue driver bug"
	env.github.resources = []ProviderResource{{ID: "org-1", Name: "Acme Inc"}}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed || outcome.RedirectTo != RedirectOnboardingSync {
		t.Fatalf("enqueue panic leaked into the flow outcome: %+v", outcome)
	}
}

func TestOnboardingListingFailure(t *testing.T) {
	env := newTestEnvironment(t)
	env.signedInUser(t, "founder@example.com")
	env.github.listErr = errors.New("api rate limited")

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, onboardingCallback(t, env, FlowGitHubOnboarding))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !outcome.Failed || outcome.RedirectTo != RedirectOnboardingConnect(ProviderGitHub) {
		t.Fatalf("outcome: %+v", outcome)
	}
	if len(env.tenants.tenants) != 0 {
		t.Fatalf("tenant created despite listing failure")
	}
}
