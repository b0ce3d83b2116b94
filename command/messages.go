package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"
)

const (
	TypeBeginFlow      = "authflow.command.flow.begin"
	TypeHandleCallback = "authflow.command.callback.handle"
	TypeMembershipSync = "authflow.command.membership.sync"
)

type BeginFlowMessage struct {
	Request core.BeginFlowRequest
}

func (BeginFlowMessage) Type() string { return TypeBeginFlow }

func (m BeginFlowMessage) Validate() error {
	if strings.TrimSpace(string(m.Request.Kind)) == "" {
		return fmt.Errorf("command: flow kind is required")
	}
	return nil
}

type HandleCallbackMessage struct {
	Provider core.ProviderID
	Request  core.ProviderCallbackRequest
}

func (HandleCallbackMessage) Type() string { return TypeHandleCallback }

func (m HandleCallbackMessage) Validate() error {
	if !m.Provider.Valid() {
		return fmt.Errorf("command: provider %q is not supported", m.Provider)
	}
	return nil
}

type MembershipSyncMessage struct {
	TenantID int64
	Provider core.ProviderID
}

func (MembershipSyncMessage) Type() string { return TypeMembershipSync }

func (m MembershipSyncMessage) Validate() error {
	if m.TenantID <= 0 {
		return fmt.Errorf("command: tenant id is required")
	}
	if !m.Provider.Valid() {
		return fmt.Errorf("command: provider %q is not supported", m.Provider)
	}
	return nil
}
