package core

import (
	"context"
	"fmt"
	"strings"
)

// LoginHandler resolves a provider identity to a local user and signs
// the caller in. It only exists for the login-capable provider.
type LoginHandler struct {
	Client     LoginProviderClient
	Users      UserStore
	Identities IdentityStore
	Members    MembershipStore
	Sessions   SessionManager
	Service    *Service
}

func (h *LoginHandler) Handle(ctx context.Context, callback FlowCallback) (CallbackOutcome, error) {
	if h == nil || h.Client == nil {
		return CallbackOutcome{}, fmt.Errorf("core: login provider client is not configured")
	}
	if h.Users == nil || h.Identities == nil || h.Sessions == nil {
		return CallbackOutcome{}, fmt.Errorf("core: login handler stores are not configured")
	}

	token, err := h.Client.ExchangeCode(ctx, callback.Code, h.redirectURI(callback.Provider))
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile, err := h.Client.Identity(ctx, token.AccessToken)
	if err != nil {
		return CallbackOutcome{}, fmt.Errorf("%w: identity lookup: %v", ErrExchangeFailed, err)
	}
	if strings.TrimSpace(profile.ID) == "" {
		return CallbackOutcome{}, fmt.Errorf("%w: identity has no id", ErrExchangeFailed)
	}

	email := strings.TrimSpace(profile.Email)
	if email == "" {
		verified, emailErr := h.Client.VerifiedEmail(ctx, token.AccessToken)
		if emailErr != nil {
			return CallbackOutcome{}, fmt.Errorf("%w: verified email lookup: %v", ErrExchangeFailed, emailErr)
		}
		email = strings.TrimSpace(verified)
	}
	if email == "" {
		email = PlaceholderEmail(profile.Handle, callback.Provider)
	}

	user, err := h.resolveUser(ctx, callback.Provider, profile, email)
	if err != nil {
		return CallbackOutcome{}, err
	}

	if err := h.Sessions.SignIn(ctx, user.ID); err != nil {
		return CallbackOutcome{}, fmt.Errorf("core: sign in: %w", err)
	}

	redirectTo := RedirectDashboard
	if h.Members != nil {
		hasTenant, memberErr := h.Members.HasAnyTenant(ctx, user.ID)
		if memberErr != nil {
			return CallbackOutcome{}, fmt.Errorf("core: membership lookup: %w", memberErr)
		}
		if !hasTenant {
			redirectTo = RedirectOnboardingConnect(callback.Provider)
		}
	}

	return CallbackOutcome{
		RedirectTo: redirectTo,
		Level:      NoticeInfo,
	}, nil
}

// resolveUser maps the external profile to a local user: existing link
// first, then email match (creating the missing link), then a fresh
// user plus link.
func (h *LoginHandler) resolveUser(ctx context.Context, provider ProviderID, profile ExternalProfile, email string) (User, error) {
	identity, found, err := h.Identities.FindByExternalID(ctx, provider, profile.ID)
	if err != nil {
		return User{}, fmt.Errorf("core: identity lookup: %w", err)
	}
	if found {
		user, getErr := h.Users.GetByID(ctx, identity.UserID)
		if getErr != nil {
			return User{}, fmt.Errorf("core: linked user lookup: %w", getErr)
		}
		return user, nil
	}

	user, found, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("core: user lookup by email: %w", err)
	}
	if !found {
		firstName, lastName := SplitDisplayName(profile.DisplayName)
		if firstName == "" {
			firstName = truncateName(strings.TrimSpace(profile.Handle))
		}
		user, err = h.Users.Create(ctx, CreateUserInput{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
		})
		if err != nil {
			return User{}, fmt.Errorf("core: create user: %w", err)
		}
	}

	if _, err := h.Identities.Create(ctx, CreateIdentityInput{
		Provider:   provider,
		ExternalID: profile.ID,
		Handle:     strings.TrimSpace(profile.Handle),
		UserID:     user.ID,
	}); err != nil {
		return User{}, fmt.Errorf("core: create identity link: %w", err)
	}
	return user, nil
}

func (h *LoginHandler) redirectURI(provider ProviderID) string {
	if h.Service == nil {
		return ""
	}
	return h.Service.callbackURL(provider)
}
