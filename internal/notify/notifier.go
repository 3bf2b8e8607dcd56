package notify

import "context"

// Notifier tells operators about session activity.
type Notifier interface {
	NotifyAdmins(ctx context.Context, msg string)
}

// Noop is a no-op notifier.
type Noop struct{}

func (Noop) NotifyAdmins(context.Context, string) {}
