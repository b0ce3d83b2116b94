package command

import (
	"context"

	"github.com/goliatone/go-authflow/core"
	gocmd "github.com/goliatone/go-command"
)

// FlowService is the slice of the authflow service the command layer
// mutates through.
type FlowService interface {
	BeginFlow(ctx context.Context, req core.BeginFlowRequest) (core.BeginFlowResponse, error)
	HandleCallback(ctx context.Context, provider core.ProviderID, req core.ProviderCallbackRequest) (core.CallbackOutcome, error)
	EnqueueMembershipSync(ctx context.Context, tenantID int64, provider core.ProviderID) core.AsyncTaskHandle
}

type BeginFlowCommand struct {
	service FlowService
}

func NewBeginFlowCommand(service FlowService) *BeginFlowCommand {
	return &BeginFlowCommand{service: service}
}

func (c *BeginFlowCommand) Execute(ctx context.Context, msg BeginFlowMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: flow service is required")
	}
	out, err := c.service.BeginFlow(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type HandleCallbackCommand struct {
	service FlowService
}

func NewHandleCallbackCommand(service FlowService) *HandleCallbackCommand {
	return &HandleCallbackCommand{service: service}
}

func (c *HandleCallbackCommand) Execute(ctx context.Context, msg HandleCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.HandleCallback(ctx, msg.Provider, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MembershipSyncCommand struct {
	service FlowService
}

func NewMembershipSyncCommand(service FlowService) *MembershipSyncCommand {
	return &MembershipSyncCommand{service: service}
}

func (c *MembershipSyncCommand) Execute(ctx context.Context, msg MembershipSyncMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sync service is required")
	}
	out := c.service.EnqueueMembershipSync(ctx, msg.TenantID, msg.Provider)
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
