// Package scheduler triggers a job once a day at a fixed wall-clock time.
//
// The scheduler polls the clock rather than sleeping until the trigger time,
// so a host that was suspended or a clock that jumped still fires on the
// next poll inside the trigger hour. The date of the last run is kept in
// memory only; a restart inside the trigger hour can run the job twice.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is the unit of work the scheduler runs.
type Job func(ctx context.Context)

// Config holds the trigger time and loop timings.
type Config struct {
	Hour         int
	Minute       int
	PollInterval time.Duration
	StopTimeout  time.Duration
	Location     *time.Location
}

// Scheduler runs Job at most once per calendar day and never concurrently
// with itself.
type Scheduler struct {
	job Job
	cfg Config
	now func() time.Time

	mu          sync.Mutex
	cancel      context.CancelFunc
	loopDone    chan struct{}
	lastRunDate string

	running atomic.Bool
	jobs    sync.WaitGroup
}

// New creates a stopped scheduler.
func New(job Job, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{job: job, cfg: cfg, now: time.Now}
}

// Start arms the scheduler. Calling Start on a started scheduler logs a
// warning and does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		log.Warn().Msg("Scheduler is already started")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	go s.loop(ctx, s.loopDone)

	log.Info().
		Int("hour", s.cfg.Hour).
		Int("minute", s.cfg.Minute).
		Str("location", s.cfg.Location.String()).
		Dur("pollInterval", s.cfg.PollInterval).
		Msg("Scheduler started")
}

// Stop disarms the scheduler and waits up to the configured stop timeout
// for an in-flight run to finish. A run still going after the timeout keeps
// running in the background. Stop on a stopped scheduler logs a warning.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		log.Warn().Msg("Scheduler is not running")
		return
	}
	s.cancel()
	loopDone := s.loopDone
	s.cancel, s.loopDone = nil, nil
	s.mu.Unlock()

	<-loopDone

	finished := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		log.Info().Msg("Scheduler stopped")
	case <-time.After(s.cfg.StopTimeout):
		log.Warn().Dur("timeout", s.cfg.StopTimeout).Msg("Scheduler stopped with a run still in progress")
	}
}

// TriggerNow starts a run immediately unless one is already in progress.
// It reports whether a run was started. Manual runs do not count as the
// day's scheduled run.
func (s *Scheduler) TriggerNow() bool {
	return s.launch("")
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Armed reports whether the scheduler is started.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// LastRunDate is the date (YYYY-MM-DD, schedule time zone) of the last
// completed scheduled run, or "".
func (s *Scheduler) LastRunDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunDate
}

// NextRun returns the next trigger time after now, ignoring whether
// today's run already happened.
func (s *Scheduler) NextRun() time.Time {
	now := s.now().In(s.cfg.Location)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, s.cfg.Location)
	if s.LastRunDate() == now.Format(time.DateOnly) || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick starts the scheduled run when the trigger time has been reached and
// no run has completed today.
func (s *Scheduler) tick() bool {
	now := s.now().In(s.cfg.Location)
	if now.Hour() != s.cfg.Hour || now.Minute() < s.cfg.Minute {
		return false
	}
	today := now.Format(time.DateOnly)
	if s.LastRunDate() == today {
		return false
	}
	return s.launch(today)
}

// launch runs the job in its own goroutine. date is recorded as the last
// run date once the job returns, whether it succeeded or not; manual runs
// pass "".
func (s *Scheduler) launch(date string) bool {
	if !s.running.CompareAndSwap(false, true) {
		log.Debug().Msg("Run already in progress, not starting another")
		return false
	}
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		defer s.running.Store(false)
		defer func() {
			if date != "" {
				s.mu.Lock()
				s.lastRunDate = date
				s.mu.Unlock()
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Scheduled job panicked")
			}
		}()

		start := time.Now()
		log.Info().Bool("manual", date == "").Msg("Scheduled job starting")
		s.job(context.Background())
		log.Info().Dur("duration", time.Since(start)).Msg("Scheduled job finished")
	}()
	return true
}
