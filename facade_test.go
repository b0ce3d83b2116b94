package authflow

import (
	"context"
	"testing"

	"github.com/goliatone/go-authflow/command"
	"github.com/goliatone/go-authflow/core"
	gocmd "github.com/goliatone/go-command"
)

type stubFlowService struct {
	begun int
}

func (s *stubFlowService) BeginFlow(_ context.Context, req core.BeginFlowRequest) (core.BeginFlowResponse, error) {
	s.begun++
	return core.BeginFlowResponse{URL: "https://example.com/authorize", State: "st"}, nil
}

func (s *stubFlowService) HandleCallback(context.Context, core.ProviderID, core.ProviderCallbackRequest) (core.CallbackOutcome, error) {
	return core.CallbackOutcome{RedirectTo: core.RedirectDashboard}, nil
}

func (s *stubFlowService) EnqueueMembershipSync(context.Context, int64, core.ProviderID) core.AsyncTaskHandle {
	return core.AsyncTaskHandle{TaskKind: core.TaskKindMembershipSync, Accepted: true}
}

func TestNewFacadeWiresCommands(t *testing.T) {
	service := &stubFlowService{}
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}

	commands := facade.Commands()
	if commands.BeginFlow == nil || commands.HandleCallback == nil || commands.MembershipSync == nil {
		t.Fatalf("commands not wired: %+v", commands)
	}

	collector := gocmd.NewResult[core.BeginFlowResponse]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err = commands.BeginFlow.Execute(ctx, command.BeginFlowMessage{
		Request: core.BeginFlowRequest{Kind: core.FlowGitHubLogin},
	})
	if err != nil {
		t.Fatalf("execute begin flow: %v", err)
	}
	if service.begun != 1 {
		t.Fatalf("service not invoked")
	}
	if result, ok := collector.Load(); !ok || result.State != "st" {
		t.Fatalf("result = %v ok=%v", result, ok)
	}
}

func TestNewFacadeRequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("nil service accepted")
	}
}
