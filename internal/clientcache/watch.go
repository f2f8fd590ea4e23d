package clientcache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Watch refreshes c on schedule ("@every 5m", "0 */10 * * * *") until ctx is
// done. Failed refreshes are logged and retried on the next tick.
func Watch(ctx context.Context, c *Cache, schedule string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	sched := cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	_, err := sched.AddFunc(schedule, func() {
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.Refresh(rctx); err != nil {
			return
		}
		logger().Debug("scheduled refresh done", zap.String("state", c.State().String()))
	})
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q", schedule)
	}

	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}
