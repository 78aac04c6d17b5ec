package scheduler

import (
	"context"
	"errors"
	"time"

	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"github.com/closebytel/closeby/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Distinct ID used for events emitted by background jobs rather than a user.
const systemDistinctID = "system_cron"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log          *zap.Logger
	AuthSvc      authdomain.Service
	AnalyticsSvc analyticsdomain.Service
	Clock        clock.Clock
	Config       Config `optional:"true"`
}

// Scheduler runs periodic maintenance jobs: a heartbeat, expired OTP
// purging, and draining the analytics outbox. Each job tracks its own
// due time so they can run on different intervals off one tick loop.
type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	authSvc      authdomain.Service
	analyticsSvc analyticsdomain.Service

	jobs []*job
}

type job struct {
	name     string
	interval time.Duration
	nextRun  time.Time
	run      func(ctx context.Context) error
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.AuthSvc == nil || p.AnalyticsSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	s := &Scheduler{
		log:          p.Log.Named("scheduler"),
		cfg:          cfg,
		clock:        p.Clock,
		authSvc:      p.AuthSvc,
		analyticsSvc: p.AnalyticsSvc,
	}
	now := p.Clock.Now()
	s.jobs = []*job{
		{name: "heartbeat", interval: cfg.HeartbeatInterval, nextRun: now, run: s.HeartbeatJob},
		{name: "purge_codes", interval: cfg.PurgeInterval, nextRun: now, run: s.PurgeCodesJob},
		{name: "flush_analytics", interval: cfg.FlushInterval, nextRun: now, run: s.FlushAnalyticsJob},
	}
	return s, nil
}

// RunOnce runs every job whose due time has passed.
func (s *Scheduler) RunOnce(parent context.Context) error {
	now := s.clock.Now()
	var err error
	for _, j := range s.jobs {
		if now.Before(j.nextRun) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, j))
		j.nextRun = now.Add(j.interval)
	}
	return err
}

func (s *Scheduler) runJob(parent context.Context, j *job) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := j.run(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("job timed out",
				zap.String("job", j.name),
				zap.Duration("timeout", s.cfg.JobTimeout),
			)
			return nil
		}
		s.log.Warn("job failed", zap.String("job", j.name), zap.Error(err))
		return err
	}
	s.log.Debug("job finished",
		zap.String("job", j.name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// HeartbeatJob records that the cron loop is alive.
func (s *Scheduler) HeartbeatJob(ctx context.Context) error {
	s.analyticsSvc.Track(ctx, analyticsdomain.TrackRequest{
		Name:       "cron_executed",
		DistinctID: systemDistinctID,
		Properties: map[string]any{"at": s.clock.Now().UTC().Format(time.RFC3339)},
	})
	return nil
}

func (s *Scheduler) PurgeCodesJob(ctx context.Context) error {
	purged, err := s.authSvc.PurgeExpiredCodes(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		s.log.Info("purged expired verification codes", zap.Int64("count", purged))
	}
	return nil
}

func (s *Scheduler) FlushAnalyticsJob(ctx context.Context) error {
	delivered, err := s.analyticsSvc.Flush(ctx)
	if err != nil {
		return err
	}
	if delivered > 0 {
		s.log.Debug("delivered analytics events", zap.Int("count", delivered))
	}
	return nil
}
