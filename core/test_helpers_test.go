package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
	getErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]User{}}
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return User{}, s.getErr
	}
	user, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %d not found", id)
	}
	return user, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (s *fakeUserStore) Create(_ context.Context, in CreateUserInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user := User{
		ID:        s.nextID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) seed(user User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		s.nextID++
		user.ID = s.nextID
	} else if user.ID > s.nextID {
		s.nextID = user.ID
	}
	s.users[user.ID] = user
	return user
}

type fakeIdentityStore struct {
	mu         sync.Mutex
	identities []ExternalIdentity
	createErr  error
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{}
}

func (s *fakeIdentityStore) FindByExternalID(_ context.Context, provider ProviderID, externalID string) (ExternalIdentity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if identity.Provider == provider && identity.ExternalID == externalID {
			return identity, true, nil
		}
	}
	return ExternalIdentity{}, false, nil
}

func (s *fakeIdentityStore) Create(_ context.Context, in CreateIdentityInput) (ExternalIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return ExternalIdentity{}, s.createErr
	}
	identity := ExternalIdentity{
		ID:         fmt.Sprintf("identity-%d", len(s.identities)+1),
		Provider:   in.Provider,
		ExternalID: in.ExternalID,
		Handle:     in.Handle,
		UserID:     in.UserID,
		CreatedAt:  time.Now().UTC(),
	}
	s.identities = append(s.identities, identity)
	return identity, nil
}

type fakeTenantStore struct {
	mu      sync.Mutex
	nextID  int64
	tenants map[int64]Tenant
	slugs   map[string]bool
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{tenants: map[int64]Tenant{}, slugs: map[string]bool{}}
}

func (s *fakeTenantStore) Get(_ context.Context, id int64) (Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[id]
	return tenant, ok, nil
}

func (s *fakeTenantStore) Create(_ context.Context, in CreateTenantInput) (Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tenant := Tenant{
		ID:        s.nextID,
		Name:      in.Name,
		Slug:      in.Slug,
		CreatedAt: time.Now().UTC(),
	}
	s.tenants[tenant.ID] = tenant
	s.slugs[tenant.Slug] = true
	return tenant, nil
}

func (s *fakeTenantStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slugs[slug], nil
}

func (s *fakeTenantStore) seed(tenant Tenant) Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant.ID == 0 {
		s.nextID++
		tenant.ID = s.nextID
	} else if tenant.ID > s.nextID {
		s.nextID = tenant.ID
	}
	s.tenants[tenant.ID] = tenant
	if tenant.Slug != "" {
		s.slugs[tenant.Slug] = true
	}
	return tenant
}

type fakeMembershipStore struct {
	mu          sync.Mutex
	memberships []Membership
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{}
}

func (s *fakeMembershipStore) Add(_ context.Context, in AddMembershipInput) (Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	membership := Membership{
		ID:        fmt.Sprintf("membership-%d", len(s.memberships)+1),
		TenantID:  in.TenantID,
		UserID:    in.UserID,
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}
	s.memberships = append(s.memberships, membership)
	return membership, nil
}

func (s *fakeMembershipStore) IsMember(_ context.Context, tenantID int64, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, membership := range s.memberships {
		if membership.TenantID == tenantID && membership.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeMembershipStore) HasAnyTenant(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, membership := range s.memberships {
		if membership.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCredentialStore struct {
	mu          sync.Mutex
	credentials map[string]Credential
	upserts     int
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{credentials: map[string]Credential{}}
}

func credentialKey(tenantID int64, provider ProviderID) string {
	return fmt.Sprintf("%d/%s", tenantID, provider)
}

func (s *fakeCredentialStore) Upsert(_ context.Context, in UpsertCredentialInput) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	key := credentialKey(in.TenantID, in.Provider)
	credential, ok := s.credentials[key]
	if !ok {
		credential = Credential{
			ID:        fmt.Sprintf("credential-%d", len(s.credentials)+1),
			TenantID:  in.TenantID,
			Provider:  in.Provider,
			CreatedAt: time.Now().UTC(),
		}
	}
	credential.EncryptedPayload = append([]byte(nil), in.EncryptedPayload...)
	credential.PayloadFormat = in.PayloadFormat
	credential.PayloadVersion = in.PayloadVersion
	credential.TokenType = in.TokenType
	credential.ExpiresAt = in.ExpiresAt
	credential.UpdatedAt = time.Now().UTC()
	s.credentials[key] = credential
	return credential, nil
}

func (s *fakeCredentialStore) FindByTenantProvider(_ context.Context, tenantID int64, provider ProviderID) (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[credentialKey(tenantID, provider)]
	return credential, ok, nil
}

type fakeIntegrationStore struct {
	mu           sync.Mutex
	integrations map[string]Integration
	upserts      int
}

func newFakeIntegrationStore() *fakeIntegrationStore {
	return &fakeIntegrationStore{integrations: map[string]Integration{}}
}

func (s *fakeIntegrationStore) Upsert(_ context.Context, in UpsertIntegrationInput) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	key := credentialKey(in.TenantID, in.Provider)
	integration, ok := s.integrations[key]
	if !ok {
		integration = Integration{
			ID:        fmt.Sprintf("integration-%d", len(s.integrations)+1),
			TenantID:  in.TenantID,
			Provider:  in.Provider,
			CreatedAt: time.Now().UTC(),
		}
	}
	integration.ResourceID = in.ResourceID
	integration.ResourceName = in.ResourceName
	integration.ResourceURL = in.ResourceURL
	integration.CredentialID = in.CredentialID
	integration.UpdatedAt = time.Now().UTC()
	s.integrations[key] = integration
	return integration, nil
}

func (s *fakeIntegrationStore) FindByTenantProvider(_ context.Context, tenantID int64, provider ProviderID) (Integration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[credentialKey(tenantID, provider)]
	return integration, ok, nil
}

type fakeSessionManager struct {
	mu         sync.Mutex
	userID     int64
	signedIn   bool
	currentErr error
	signIns    []int64
	stashed    []PendingSelection
	stashErr   error
}

func (s *fakeSessionManager) CurrentUserID(context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentErr != nil {
		return 0, false, s.currentErr
	}
	return s.userID, s.signedIn, nil
}

func (s *fakeSessionManager) SignIn(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signIns = append(s.signIns, userID)
	s.userID = userID
	s.signedIn = true
	return nil
}

func (s *fakeSessionManager) StashSelection(_ context.Context, selection PendingSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stashErr != nil {
		return s.stashErr
	}
	s.stashed = append(s.stashed, selection)
	return nil
}

type fakeEnqueuer struct {
	mu        sync.Mutex
	messages  []*TaskMessage
	err       error
	panicWith any
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, msg *TaskMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	if e.err != nil {
		return e.err
	}
	e.messages = append(e.messages, msg)
	return nil
}

type fakeProviderClient struct {
	id           ProviderID
	token        ProviderToken
	exchangeErr  error
	exchanges    int
	resources    []ProviderResource
	listErr      error
	profile      ExternalProfile
	identityErr  error
	verifiedMail string
	mailErr      error
}

func (c *fakeProviderClient) ID() ProviderID { return c.id }

func (c *fakeProviderClient) AuthorizeURL(state string, scopes []string, redirectURI string) string {
	return fmt.Sprintf("https://%s.example/authorize?state=%s&scopes=%d&redirect=%s", c.id, state, len(scopes), redirectURI)
}

func (c *fakeProviderClient) ExchangeCode(context.Context, string, string) (ProviderToken, error) {
	c.exchanges++
	if c.exchangeErr != nil {
		return ProviderToken{}, c.exchangeErr
	}
	return c.token, nil
}

func (c *fakeProviderClient) ListResources(context.Context, ProviderToken) ([]ProviderResource, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.resources, nil
}

func (c *fakeProviderClient) Identity(context.Context, string) (ExternalProfile, error) {
	if c.identityErr != nil {
		return ExternalProfile{}, c.identityErr
	}
	return c.profile, nil
}

func (c *fakeProviderClient) VerifiedEmail(context.Context, string) (string, error) {
	if c.mailErr != nil {
		return "", c.mailErr
	}
	return c.verifiedMail, nil
}

type testEnvironment struct {
	service      *Service
	users        *fakeUserStore
	identities   *fakeIdentityStore
	tenants      *fakeTenantStore
	members      *fakeMembershipStore
	credentials  *fakeCredentialStore
	integrations *fakeIntegrationStore
	sessions     *fakeSessionManager
	enqueuer     *fakeEnqueuer
	github       *fakeProviderClient
	jira         *fakeProviderClient
	slack        *fakeProviderClient
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	env := &testEnvironment{
		users:        newFakeUserStore(),
		identities:   newFakeIdentityStore(),
		tenants:      newFakeTenantStore(),
		members:      newFakeMembershipStore(),
		credentials:  newFakeCredentialStore(),
		integrations: newFakeIntegrationStore(),
		sessions:     &fakeSessionManager{},
		enqueuer:     &fakeEnqueuer{},
		github: &fakeProviderClient{
			id:    ProviderGitHub,
			token: ProviderToken{AccessToken: "github-token", TokenType: "bearer"},
		},
		jira: &fakeProviderClient{
			id:    ProviderJira,
			token: ProviderToken{AccessToken: "jira-token", TokenType: "bearer"},
		},
		slack: &fakeProviderClient{
			id:    ProviderSlack,
			token: ProviderToken{AccessToken: "slack-token", TokenType: "bearer"},
		},
	}

	cfg := Config{
		CallbackURL: "https://app.example.com",
		State:       StateConfig{Secret: "test-signing-secret"},
	}
	service, err := NewService(cfg,
		WithUserStore(env.users),
		WithIdentityStore(env.identities),
		WithTenantStore(env.tenants),
		WithMembershipStore(env.members),
		WithCredentialStore(env.credentials),
		WithIntegrationStore(env.integrations),
		WithSessionManager(env.sessions),
		WithTaskEnqueuer(env.enqueuer),
		WithProviderClient(env.github),
		WithProviderClient(env.jira),
		WithProviderClient(env.slack),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	env.service = service
	return env
}

func (env *testEnvironment) signedInUser(t *testing.T, email string) User {
	t.Helper()
	user := env.users.seed(User{Email: email, FirstName: "Test"})
	env.sessions.userID = user.ID
	env.sessions.signedIn = true
	return user
}

func (env *testEnvironment) encodeState(t *testing.T, kind FlowKind, tenantID *int64) string {
	t.Helper()
	state, err := env.service.Codec().Encode(kind, tenantID)
	if err != nil {
		t.Fatalf("encode state for %s: %v", kind, err)
	}
	return state
}

func int64Ptr(v int64) *int64 {
	return &v
}
