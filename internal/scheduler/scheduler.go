// Package scheduler runs configured collections on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Job is one scheduled collection.
type Job struct {
	CompanyName string `yaml:"company_name"`
	CompanyURL  string `yaml:"company_url"`
	Duration    string `yaml:"duration"`
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@daily".
	Schedule string `yaml:"schedule"`
}

// Config lists the scheduled jobs.
type Config struct {
	Enabled bool  `env:"SCHEDULER_ENABLED" yaml:"enabled"`
	Jobs    []Job `yaml:"jobs"`
}

// Collector runs one collection.
type Collector interface {
	Collect(ctx context.Context, req domain.CollectionRequest) domain.CollectionResult
}

// Scheduler owns a cron instance with one entry per Job.
type Scheduler struct {
	cron      *cron.Cron
	collector Collector
	log       infralogger.Logger
	jobs      []domain.CollectionRequest
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// New validates every job and registers it. No job runs until Start.
func New(cfg Config, collector Collector, log infralogger.Logger) (*Scheduler, error) {
	if log == nil {
		log = infralogger.NewNop()
	}

	parser := newParser()
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLogger{log: log})),
		cron.WithLogger(cronLogger{log: log}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:      c,
		collector: collector,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}

	var errs []error
	for i, job := range cfg.Jobs {
		req, err := validateJob(job, parser)
		if err != nil {
			errs = append(errs, fmt.Errorf("job %d (%s): %w", i, job.CompanyName, err))
			continue
		}
		if _, err = c.AddFunc(job.Schedule, func() { s.run(req) }); err != nil {
			errs = append(errs, fmt.Errorf("job %d (%s): %w", i, job.CompanyName, err))
			continue
		}
		s.jobs = append(s.jobs, req)
	}
	if len(errs) > 0 {
		cancel()
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func validateJob(job Job, parser cron.Parser) (domain.CollectionRequest, error) {
	if job.CompanyName == "" || job.CompanyURL == "" {
		return domain.CollectionRequest{}, fmt.Errorf("%w: company_name and company_url are required", domain.ErrInvalidRequest)
	}
	d, err := domain.ParseDuration(job.Duration)
	if err != nil {
		return domain.CollectionRequest{}, err
	}
	if _, err = parser.Parse(job.Schedule); err != nil {
		return domain.CollectionRequest{}, fmt.Errorf("invalid schedule %q: %w", job.Schedule, err)
	}
	return domain.CollectionRequest{CompanyName: job.CompanyName, CompanyURL: job.CompanyURL, Duration: d}, nil
}

// Jobs returns the registered collection requests.
func (s *Scheduler) Jobs() []domain.CollectionRequest {
	return s.jobs
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.log.Info("Starting collection scheduler", infralogger.Int("jobs", len(s.jobs)))
	s.cron.Start()
}

// Stop stops scheduling, cancels running collections, and waits for them
// or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.log.Info("Stopping collection scheduler")
	cronCtx := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Collection scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// RunAll runs every job once, sequentially, and returns the results.
func (s *Scheduler) RunAll(ctx context.Context) []domain.CollectionResult {
	results := make([]domain.CollectionResult, 0, len(s.jobs))
	for _, req := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.collector.Collect(ctx, req))
	}
	return results
}

func (s *Scheduler) run(req domain.CollectionRequest) {
	s.wg.Add(1)
	defer s.wg.Done()

	s.log.Info("Running scheduled collection",
		infralogger.String("company", req.CompanyName),
		infralogger.String("duration", string(req.Duration)))

	res := s.collector.Collect(s.ctx, req)
	if !res.Success {
		s.log.Error("Scheduled collection failed",
			infralogger.String("company", req.CompanyName),
			infralogger.String("error_kind", string(res.ErrorKind)),
			infralogger.String("error", res.Error))
		return
	}
	s.log.Info("Scheduled collection completed",
		infralogger.String("company", req.CompanyName),
		infralogger.Int("new_urls_found", res.NewURLsFound),
		infralogger.Int("total_urls_stored", res.TotalURLsStored))
}

// cronLogger routes cron's key/value logging to the service logger.
type cronLogger struct {
	log infralogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, infralogger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, infralogger.Error(err), infralogger.Any("details", keysAndValues))
}
