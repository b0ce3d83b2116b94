package core

import "strings"

// FlowKind is the closed category describing why an OAuth redirect was
// started. Seven concrete kinds exist across the three providers; only
// GitHub carries a login kind.
type FlowKind string

const (
	FlowGitHubLogin       FlowKind = "github_login"
	FlowGitHubOnboarding  FlowKind = "github_onboarding"
	FlowGitHubIntegration FlowKind = "github_integration"
	FlowJiraOnboarding    FlowKind = "jira_onboarding"
	FlowJiraIntegration   FlowKind = "jira_integration"
	FlowSlackOnboarding   FlowKind = "slack_onboarding"
	FlowSlackIntegration  FlowKind = "slack_integration"
)

// TenantRequirement is the requirement class a flow kind imposes on the
// tenant id embedded in its state token.
type TenantRequirement string

const (
	TenantRequired  TenantRequirement = "required"
	TenantForbidden TenantRequirement = "forbidden"
	TenantOptional  TenantRequirement = "optional"
)

// Redirect targets shared by the dispatcher and the flow handlers. The
// host application mounts its UI on the same paths.
const (
	RedirectLogin              = "/login"
	RedirectDashboard          = "/dashboard"
	RedirectHome               = "/"
	RedirectOnboardingSync     = "/onboarding/sync"
	RedirectOnboardingSelect   = "/onboarding/select"
	RedirectIntegrations       = "/settings/integrations"
	RedirectIntegrationsSelect = "/settings/integrations/select"
)

// RedirectOnboardingConnect is the start of the onboarding flow for one
// provider; failed onboarding callbacks return the caller there.
func RedirectOnboardingConnect(provider ProviderID) string {
	return "/onboarding/connect/" + string(provider)
}

type flowSpec struct {
	provider    ProviderID
	requirement TenantRequirement
	failureTo   string
}

// FlowRegistry is the pure mapping from flow kind to provider, tenant
// requirement class, and the redirect target used when that flow fails.
type FlowRegistry struct {
	specs map[FlowKind]flowSpec
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{
		specs: map[FlowKind]flowSpec{
			FlowGitHubLogin:       {provider: ProviderGitHub, requirement: TenantForbidden, failureTo: RedirectLogin},
			FlowGitHubOnboarding:  {provider: ProviderGitHub, requirement: TenantOptional, failureTo: RedirectOnboardingConnect(ProviderGitHub)},
			FlowGitHubIntegration: {provider: ProviderGitHub, requirement: TenantRequired, failureTo: RedirectIntegrations},
			FlowJiraOnboarding:    {provider: ProviderJira, requirement: TenantOptional, failureTo: RedirectOnboardingConnect(ProviderJira)},
			FlowJiraIntegration:   {provider: ProviderJira, requirement: TenantRequired, failureTo: RedirectIntegrations},
			FlowSlackOnboarding:   {provider: ProviderSlack, requirement: TenantOptional, failureTo: RedirectOnboardingConnect(ProviderSlack)},
			FlowSlackIntegration:  {provider: ProviderSlack, requirement: TenantRequired, failureTo: RedirectIntegrations},
		},
	}
}

func (r *FlowRegistry) IsValid(kind FlowKind) bool {
	if r == nil {
		return false
	}
	_, ok := r.specs[kind]
	return ok
}

func (r *FlowRegistry) Requirement(kind FlowKind) TenantRequirement {
	if r == nil {
		return TenantForbidden
	}
	spec, ok := r.specs[kind]
	if !ok {
		return TenantForbidden
	}
	return spec.requirement
}

func (r *FlowRegistry) Provider(kind FlowKind) ProviderID {
	if r == nil {
		return ""
	}
	return r.specs[kind].provider
}

// FailureRedirect returns the flow-specific target used on any failure
// for the kind; unrecognized kinds map to the generic fallback.
func (r *FlowRegistry) FailureRedirect(kind FlowKind) string {
	if r == nil {
		return RedirectHome
	}
	spec, ok := r.specs[kind]
	if !ok || strings.TrimSpace(spec.failureTo) == "" {
		return RedirectHome
	}
	return spec.failureTo
}

// Kinds returns every registered flow kind; order is not significant.
func (r *FlowRegistry) Kinds() []FlowKind {
	if r == nil {
		return nil
	}
	kinds := make([]FlowKind, 0, len(r.specs))
	for kind := range r.specs {
		kinds = append(kinds, kind)
	}
	return kinds
}

// KindsForProvider returns the flow kinds whose callback is served by
// the given provider's endpoint.
func (r *FlowRegistry) KindsForProvider(provider ProviderID) []FlowKind {
	if r == nil {
		return nil
	}
	kinds := make([]FlowKind, 0, 3)
	for kind, spec := range r.specs {
		if spec.provider == provider {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// IsLogin reports whether the kind authenticates the caller instead of
// requiring an already-authenticated one.
func (k FlowKind) IsLogin() bool {
	return k == FlowGitHubLogin
}

// IsOnboarding reports whether the kind creates a new tenant.
func (k FlowKind) IsOnboarding() bool {
	switch k {
	case FlowGitHubOnboarding, FlowJiraOnboarding, FlowSlackOnboarding:
		return true
	}
	return false
}

// IsIntegration reports whether the kind attaches a provider to an
// existing tenant.
func (k FlowKind) IsIntegration() bool {
	switch k {
	case FlowGitHubIntegration, FlowJiraIntegration, FlowSlackIntegration:
		return true
	}
	return false
}
