package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenPurger deletes expired refresh tokens and those revoked before
// the cutoff.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, revokedBefore time.Time) (int64, error)
}

// revokedRetention keeps revoked tokens around briefly for auditing.
const revokedRetention = 24 * time.Hour

// StartTokenCleanup runs the purge on the cron spec until the returned
// cron is stopped.  Overlapping runs are skipped.
func StartTokenCleanup(spec string, p TokenPurger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { purgeTokens(p) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func purgeTokens(p TokenPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := p.PurgeExpired(ctx, time.Now().UTC().Add(-revokedRetention))
	if err != nil {
		log.Printf("housekeeping: purge refresh tokens: %v", err)
		return
	}
	if n > 0 {
		log.Printf("housekeeping: purged %d refresh tokens", n)
	}
}
