package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[BeginFlowMessage]      = (*BeginFlowCommand)(nil)
	_ gocmd.Commander[HandleCallbackMessage] = (*HandleCallbackCommand)(nil)
	_ gocmd.Commander[MembershipSyncMessage] = (*MembershipSyncCommand)(nil)
)
