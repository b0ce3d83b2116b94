package core

import (
	"context"
	"fmt"
	"strings"
)

// Task kinds dispatched after a flow commits its durable writes.
const (
	TaskKindMembershipSync  = "authflow.membership.sync"
	TaskKindIntegrationSync = "authflow.integration.sync"
)

// SideEffectDispatcher is the single swallow-and-log boundary for
// best-effort asynchronous work. Callers must have committed every
// durable write before enqueueing: a queue outage degrades to "sync
// happens later", never to data loss or a blocked flow. Failures —
// including panics from the underlying enqueuer — are logged as
// warnings and never re-raised.
type SideEffectDispatcher struct {
	enqueuer TaskEnqueuer
	logger   Logger
}

func NewSideEffectDispatcher(enqueuer TaskEnqueuer, logger Logger) *SideEffectDispatcher {
	return &SideEffectDispatcher{
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Enqueue hands the task to the queue and reports whether it was
// accepted. The handle is informational only; callers must not branch
// their critical path on it.
func (d *SideEffectDispatcher) Enqueue(ctx context.Context, taskKind string, payload map[string]any) AsyncTaskHandle {
	handle := AsyncTaskHandle{TaskKind: strings.TrimSpace(taskKind)}
	if d == nil || d.enqueuer == nil {
		return handle
	}
	if handle.TaskKind == "" {
		d.warn(ctx, "side effect dropped: task kind is empty", nil)
		return handle
	}

	err := d.safeEnqueue(ctx, &TaskMessage{
		Kind:    handle.TaskKind,
		Payload: copyAnyMap(payload),
	})
	if err != nil {
		d.warn(ctx, "side effect enqueue failed", map[string]any{
			"task_kind": handle.TaskKind,
			"error":     err.Error(),
		})
		return handle
	}
	handle.Accepted = true
	return handle
}

func (d *SideEffectDispatcher) safeEnqueue(ctx context.Context, msg *TaskMessage) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("core: side effect enqueue panicked: %v", recovered)
		}
	}()
	return d.enqueuer.Enqueue(ctx, msg)
}

func (d *SideEffectDispatcher) warn(ctx context.Context, message string, fields map[string]any) {
	if d == nil || d.logger == nil {
		return
	}
	logger := d.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	logger.Warn(message, flattenFields(fields)...)
}
