package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/friendconnect/internal/jobs"
	"github.com/Dias221467/friendconnect/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper evicts idle sessions.
type Sweeper interface {
	Sweep() int
}

// Start registers the session sweep and the reconciliation scan and starts the scheduler.
// Sweep intervals under a second run every second. Callers stop the returned cron on shutdown.
func Start(sessions Sweeper, sweepInterval time.Duration, reconciler *jobs.Reconciler, reconcileSpec string, jobTimeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger.Log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger.Log)),
	))

	// Session sweep
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", sweepInterval), func() {
		if n := sessions.Sweep(); n > 0 {
			logrus.WithField("evicted", n).Debug("Session sweep completed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	// Friendship and membership reconciliation
	if _, err := c.AddFunc(reconcileSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := reconciler.RunFullScan(ctx); err != nil {
			logrus.WithError(err).Error("Reconciliation failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", reconcileSpec, err)
	}

	c.Start()
	return c, nil
}
