package sqlstore

import "github.com/goliatone/go-authflow/core"

var (
	_ core.UserStore              = (*UserStore)(nil)
	_ core.IdentityStore          = (*IdentityStore)(nil)
	_ core.TenantStore            = (*TenantStore)(nil)
	_ core.MembershipStore        = (*MembershipStore)(nil)
	_ core.CredentialStore        = (*CredentialStore)(nil)
	_ core.IntegrationStore       = (*IntegrationStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
