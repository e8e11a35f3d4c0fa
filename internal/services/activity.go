package services

import (
	"context"

	applog "quotedesk/internal/log"
	"quotedesk/internal/repos"
)

// Activity appends business actions to the logs tab. Failures are logged and ignored.
type Activity struct {
	Logs *repos.LogRepo
}

func (a *Activity) Record(ctx context.Context, user, action, details string) {
	if a == nil || a.Logs == nil {
		return
	}
	if err := a.Logs.Append(ctx, user, action, details); err != nil {
		applog.Logger().WithError(err).WithField("level", "error").Error("activity.append")
	}
}
