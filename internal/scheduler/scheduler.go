// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/projektfire/internal/ratelimit"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	publishSpec = "@every 60s"
	pruneSpec   = "@every 10m"
)

// Publisher promotes scheduled articles.
type Publisher interface {
	PublishScheduled(ctx context.Context, now time.Time) (int, error)
}

// Scheduler owns the cron runner for the scheduled-publish sweep and the
// rate limiter cleanup.
type Scheduler struct {
	cron           *cron.Cron
	chain          cron.Chain
	publisher      Publisher
	limiters       []*ratelimit.Limiter
	log            zerolog.Logger
	now            func() time.Time
	ctx            context.Context
	cancel         context.CancelFunc
	publishEntryID cron.EntryID
	sweeps         sync.WaitGroup
}

// New builds a stopped scheduler.
func New(publisher Publisher, log zerolog.Logger, limiters ...*ratelimit.Limiter) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := log.With().Str("component", "scheduler").Logger()
	recoverer := cron.Recover(cronLogger{log: logger})
	return &Scheduler{
		cron:      cron.New(cron.WithChain(recoverer)),
		chain:     cron.NewChain(recoverer),
		publisher: publisher,
		limiters:  limiters,
		log:       logger,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs one sweep immediately and then registers the periodic jobs.
func (s *Scheduler) Start() error {
	s.chain.Then(cron.FuncJob(s.RunOnce)).Run()

	var err error
	s.publishEntryID, err = s.cron.AddFunc(publishSpec, s.RunOnce)
	if err != nil {
		return fmt.Errorf("register publish job: %w", err)
	}
	if len(s.limiters) > 0 {
		if _, err := s.cron.AddFunc(pruneSpec, s.pruneLimiters); err != nil {
			return fmt.Errorf("register prune job: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info().Str("publish", publishSpec).Msg("scheduler started")
	return nil
}

// RunOnce performs a single publish sweep. Failures are logged, never returned.
func (s *Scheduler) RunOnce() {
	s.sweeps.Add(1)
	defer s.sweeps.Done()
	count, err := s.publisher.PublishScheduled(s.ctx, s.now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled publish sweep failed")
		return
	}
	if count > 0 {
		s.log.Info().Int("published", count).Msg("scheduled articles published")
	}
}

// NextPublish returns when the next sweep runs.
func (s *Scheduler) NextPublish() time.Time {
	return s.cron.Entry(s.publishEntryID).Next
}

// Stop lets a running sweep finish. The sweep context is cancelled only
// once it has returned or ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	defer s.cancel()
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.sweeps.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) pruneLimiters() {
	for _, limiter := range s.limiters {
		limiter.Prune()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
