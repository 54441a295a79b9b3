package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const stopTimeout = 5 * time.Second

// Job is a periodic task run while the scheduler is started.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	// RunOnStart also runs the job once as soon as the scheduler starts.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs registered jobs between Start and Stop. It is started when an
// operator session begins and stopped when it ends, cancelling running jobs.
type Scheduler struct {
	location *time.Location
	logger   *zap.Logger

	mu      sync.Mutex
	jobs    []Job
	cron    *cron.Cron
	cancel  context.CancelFunc
	onStart *sync.WaitGroup
	running bool
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(location *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &Scheduler{location: location, logger: logger}
}

// Register adds a job. The schedule uses standard cron syntax or descriptors such as "@every 30s".
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job name and func are required")
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}
	if job.Timeout <= 0 {
		job.Timeout = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

// Start starts the scheduler. Calling it while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.jobs)))

	ctx, cancel := context.WithCancel(context.Background())
	onStart := &sync.WaitGroup{}
	c := cron.New(cron.WithLocation(s.location))
	for _, job := range s.jobs {
		job := job
		if _, err := c.AddFunc(job.Schedule, func() { s.runJob(ctx, job) }); err != nil {
			s.logger.Error("failed to schedule job", zap.String("job", job.Name), zap.Error(err))
			continue
		}
		if job.RunOnStart {
			onStart.Add(1)
			go func() {
				defer onStart.Done()
				s.runJob(ctx, job)
			}()
		}
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.onStart = onStart
	s.running = true
}

// Stop stops the scheduler, cancels running jobs and waits for them briefly,
// so no job touches session state once Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c, cancel, onStart := s.cron, s.cancel, s.onStart
	s.cron, s.cancel, s.onStart, s.running = nil, nil, nil, false
	s.mu.Unlock()

	s.logger.Info("stopping scheduler")
	cancel()
	cronDone := c.Stop()

	// cron only tracks the runs it scheduled itself
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		onStart.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.logger.Warn("scheduler jobs still running after stop timeout")
	}
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runJob(parent context.Context, job Job) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, job.Timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		s.logger.Warn("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job done", zap.String("job", job.Name))
}
