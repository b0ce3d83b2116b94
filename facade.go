package authflow

import (
	"fmt"

	authflowcommand "github.com/goliatone/go-authflow/command"
)

// Commands groups the go-command handlers for hosts wiring the flows
// into a command bus.
type Commands struct {
	BeginFlow      *authflowcommand.BeginFlowCommand
	HandleCallback *authflowcommand.HandleCallbackCommand
	MembershipSync *authflowcommand.MembershipSyncCommand
}

type Facade struct {
	service  authflowcommand.FlowService
	commands Commands
}

func NewFacade(service authflowcommand.FlowService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("authflow: flow service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		BeginFlow:      authflowcommand.NewBeginFlowCommand(service),
		HandleCallback: authflowcommand.NewHandleCallbackCommand(service),
		MembershipSync: authflowcommand.NewMembershipSyncCommand(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Service() authflowcommand.FlowService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ authflowcommand.FlowService = (*Service)(nil)
