package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenPurger deletes refresh tokens that expired or were revoked before
// the retention window.
type TokenPurger interface {
	PurgeTokens(ctx context.Context, retention time.Duration) (int64, error)
}

type Janitor struct {
	c *cron.Cron
}

// NewJanitor schedules the token purge on spec (standard cron syntax or
// descriptors such as "@every 1h"). An empty spec disables the job.
func NewJanitor(spec string, retention time.Duration, p TokenPurger, l *zap.Logger) (*Janitor, error) {
	cl := cron.PrintfLogger(zap.NewStdLog(l.Named("cron")))
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	if spec != "" {
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := p.PurgeTokens(ctx, retention)
			if err != nil {
				l.Error("purge refresh tokens", zap.Error(err))
				return
			}
			l.Info("purged refresh tokens", zap.Int64("deleted", n))
		})
		if err != nil {
			return nil, err
		}
	}
	return &Janitor{c: c}, nil
}

func (j *Janitor) Start() { j.c.Start() }

// Stop waits for a running job to finish or ctx to expire.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
