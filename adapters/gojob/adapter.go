package gojob

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// ToExecutionMessage maps an authflow task to the go-job queue contract.
// The task kind becomes the job id, so queue workers route on it
// directly.
func ToExecutionMessage(msg *core.TaskMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.Kind),
		Parameters:     copyAnyMap(msg.Payload),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}
}

// FromExecutionMessage maps a go-job message back into the authflow
// contract.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.TaskMessage {
	if msg == nil {
		return nil
	}
	return &core.TaskMessage{
		Kind:           strings.TrimSpace(msg.JobID),
		Payload:        copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}
}

// EnqueuerAdapter exposes a go-job queue enqueuer as a core.TaskEnqueuer
// so the side-effect dispatcher can hand sync work to the host's queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.TaskMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: task message is required")
	}
	if strings.TrimSpace(msg.Kind) == "" {
		return fmt.Errorf("gojob: task kind is required")
	}
	_, err := a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
	return err
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ core.TaskEnqueuer = (*EnqueuerAdapter)(nil)
