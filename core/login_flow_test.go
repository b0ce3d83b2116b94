package core

import (
	"context"
	"errors"
	"testing"
)

func loginCallback(t *testing.T, env *testEnvironment) ProviderCallbackRequest {
	t.Helper()
	return ProviderCallbackRequest{
		State: env.encodeState(t, FlowGitHubLogin, nil),
		Code:  "code-123",
	}
}

func TestLoginCreatesUserAndIdentity(t *testing.T) {
	env := newTestEnvironment(t)
	env.github.profile = ExternalProfile{
		ID:          "gh-77",
		Handle:      "octocat",
		Email:       "octo@example.com",
		DisplayName: "Octo Cat",
	}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("login failed: %+v", outcome)
	}
	if outcome.RedirectTo != RedirectOnboardingConnect(ProviderGitHub) {
		t.Fatalf("redirect = %q, want onboarding for tenant-less user", outcome.RedirectTo)
	}

	if len(env.sessions.signIns) != 1 {
		t.Fatalf("sign ins = %d, want 1", len(env.sessions.signIns))
	}
	user, err := env.users.GetByID(context.Background(), env.sessions.signIns[0])
	if err != nil {
		t.Fatalf("signed-in user missing: %v", err)
	}
	if user.Email != "octo@example.com" || user.FirstName != "Octo" || user.LastName != "Cat" {
		t.Fatalf("created user = %+v", user)
	}

	identity, found, err := env.identities.FindByExternalID(context.Background(), ProviderGitHub, "gh-77")
	if err != nil || !found {
		t.Fatalf("identity link missing: found=%v err=%v", found, err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("identity linked to user %d, want %d", identity.UserID, user.ID)
	}
}

func TestLoginReusesExistingIdentityLink(t *testing.T) {
	env := newTestEnvironment(t)
	existing := env.users.seed(User{Email: "known@example.com"})
	if _, err := env.identities.Create(context.Background(), CreateIdentityInput{
		Provider:   ProviderGitHub,
		ExternalID: "gh-77",
		Handle:     "octocat",
		UserID:     existing.ID,
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	if _, err := env.members.Add(context.Background(), AddMembershipInput{TenantID: 1, UserID: existing.ID, Role: MembershipRoleMember}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	env.github.profile = ExternalProfile{ID: "gh-77", Handle: "octocat"}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("login failed: %+v", outcome)
	}
	if outcome.RedirectTo != RedirectDashboard {
		t.Fatalf("redirect = %q, want dashboard for tenant-holding user", outcome.RedirectTo)
	}
	if len(env.sessions.signIns) != 1 || env.sessions.signIns[0] != existing.ID {
		t.Fatalf("sign ins = %v, want [%d]", env.sessions.signIns, existing.ID)
	}
	if len(env.users.users) != 1 {
		t.Fatalf("login created a duplicate user")
	}
}

func TestLoginLinksExistingUserByEmail(t *testing.T) {
	env := newTestEnvironment(t)
	existing := env.users.seed(User{Email: "match@example.com"})
	env.github.profile = ExternalProfile{ID: "gh-42", Handle: "matcher", Email: "match@example.com"}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("login failed: %+v", outcome)
	}

	identity, found, err := env.identities.FindByExternalID(context.Background(), ProviderGitHub, "gh-42")
	if err != nil || !found {
		t.Fatalf("missing link record created for email match: found=%v err=%v", found, err)
	}
	if identity.UserID != existing.ID {
		t.Fatalf("link points at user %d, want %d", identity.UserID, existing.ID)
	}
	if len(env.users.users) != 1 {
		t.Fatalf("email match created a duplicate user")
	}
}

func TestLoginFetchesVerifiedEmailWhenProfileHasNone(t *testing.T) {
	env := newTestEnvironment(t)
	env.github.profile = ExternalProfile{ID: "gh-9", Handle: "quiet"}
	env.github.verifiedMail = "verified@example.com"

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("login failed: %+v", outcome)
	}
	if _, found, _ := env.users.FindByEmail(context.Background(), "verified@example.com"); !found {
		t.Fatalf("user not created with verified email")
	}
}

func TestLoginFallsBackToPlaceholderEmail(t *testing.T) {
	env := newTestEnvironment(t)
	env.github.profile = ExternalProfile{ID: "gh-9", Handle: "Ghost"}

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if outcome.Failed {
		t.Fatalf("login failed: %+v", outcome)
	}
	want := PlaceholderEmail("Ghost", ProviderGitHub)
	if _, found, _ := env.users.FindByEmail(context.Background(), want); !found {
		t.Fatalf("user not created with placeholder email %q", want)
	}
}

func TestLoginExchangeFailureRedirectsToLogin(t *testing.T) {
	env := newTestEnvironment(t)
	env.github.exchangeErr = errors.New("token endpoint unreachable")

	outcome, err := env.service.HandleCallback(context.Background(), ProviderGitHub, loginCallback(t, env))
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !outcome.Failed || outcome.RedirectTo != RedirectLogin {
		t.Fatalf("exchange failure outcome: %+v", outcome)
	}
	if len(env.sessions.signIns) != 0 {
		t.Fatalf("caller was signed in despite failed exchange")
	}
	if len(env.users.users) != 0 {
		t.Fatalf("user created despite failed exchange")
	}
}
