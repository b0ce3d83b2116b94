package sqlstore

import (
	"time"

	"github.com/goliatone/go-authflow/core"
)

func newUserRecord(in core.CreateUserInput, now time.Time) *userRecord {
	return &userRecord{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *userRecord) toDomain() core.User {
	if r == nil {
		return core.User{}
	}
	return core.User{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newIdentityRecord(in core.CreateIdentityInput, now time.Time) *identityRecord {
	return &identityRecord{
		Provider:   string(in.Provider),
		ExternalID: in.ExternalID,
		Handle:     in.Handle,
		UserID:     in.UserID,
		CreatedAt:  now,
	}
}

func (r *identityRecord) toDomain() core.ExternalIdentity {
	if r == nil {
		return core.ExternalIdentity{}
	}
	return core.ExternalIdentity{
		ID:         r.ID,
		Provider:   core.ProviderID(r.Provider),
		ExternalID: r.ExternalID,
		Handle:     r.Handle,
		UserID:     r.UserID,
		CreatedAt:  r.CreatedAt,
	}
}

func newTenantRecord(in core.CreateTenantInput, now time.Time) *tenantRecord {
	return &tenantRecord{
		Name:      in.Name,
		Slug:      in.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *tenantRecord) toDomain() core.Tenant {
	if r == nil {
		return core.Tenant{}
	}
	return core.Tenant{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newMembershipRecord(in core.AddMembershipInput, now time.Time) *membershipRecord {
	role := in.Role
	if role == "" {
		role = core.MembershipRoleMember
	}
	return &membershipRecord{
		TenantID:  in.TenantID,
		UserID:    in.UserID,
		Role:      string(role),
		CreatedAt: now,
	}
}

func (r *membershipRecord) toDomain() core.Membership {
	if r == nil {
		return core.Membership{}
	}
	return core.Membership{
		ID:        r.ID,
		TenantID:  r.TenantID,
		UserID:    r.UserID,
		Role:      core.MembershipRole(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

func newCredentialRecord(in core.UpsertCredentialInput, now time.Time) *credentialRecord {
	record := &credentialRecord{
		TenantID:         in.TenantID,
		Provider:         string(in.Provider),
		EncryptedPayload: append([]byte(nil), in.EncryptedPayload...),
		PayloadFormat:    in.PayloadFormat,
		PayloadVersion:   in.PayloadVersion,
		TokenType:        in.TokenType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.ExpiresAt != nil {
		expiresAt := *in.ExpiresAt
		record.ExpiresAt = &expiresAt
	}
	return record
}

func (r *credentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	credential := core.Credential{
		ID:               r.ID,
		TenantID:         r.TenantID,
		Provider:         core.ProviderID(r.Provider),
		EncryptedPayload: append([]byte(nil), r.EncryptedPayload...),
		PayloadFormat:    r.PayloadFormat,
		PayloadVersion:   r.PayloadVersion,
		TokenType:        r.TokenType,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.ExpiresAt != nil {
		expiresAt := *r.ExpiresAt
		credential.ExpiresAt = &expiresAt
	}
	return credential
}

func newIntegrationRecord(in core.UpsertIntegrationInput, now time.Time) *integrationRecord {
	return &integrationRecord{
		TenantID:     in.TenantID,
		Provider:     string(in.Provider),
		ResourceID:   in.ResourceID,
		ResourceName: in.ResourceName,
		ResourceURL:  in.ResourceURL,
		CredentialID: in.CredentialID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *integrationRecord) toDomain() core.Integration {
	if r == nil {
		return core.Integration{}
	}
	return core.Integration{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Provider:     core.ProviderID(r.Provider),
		ResourceID:   r.ResourceID,
		ResourceName: r.ResourceName,
		ResourceURL:  r.ResourceURL,
		CredentialID: r.CredentialID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
