package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
	retryBackoff        = 100 * time.Millisecond
)

// submission ties a generated request to the job the server created.
type submission struct {
	req   types.FormationRequest
	jobID string
}

// Run executes one complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting lineup load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("jobs", cfg.Jobs),
		logger.Int("players", cfg.Players),
		logger.Int("teams", cfg.Teams),
		logger.Int("workers", cfg.Workers),
		logger.String("strategy", cfg.Strategy),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // nanoseconds since epoch are positive
	}
	requests := Generate(cfg, search.NewSource(seed))
	stats.Generated = len(requests)

	if cfg.OutputFile != "" {
		if err := saveRequests(cfg.OutputFile, requests); err != nil {
			log.Warn(ctx, "failed to save requests", logger.Error(err))
		}
	}

	subs := submitAll(ctx, client, cfg, requests, stats)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
	)

	verifyAll(ctx, client, cfg, subs, stats, log)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	switch n := len(stats.Balances); {
	case n > 1:
		stats.BalanceMean, stats.BalanceStdDev = stat.MeanStdDev(stats.Balances, nil)
	case n == 1:
		stats.BalanceMean = stats.Balances[0]
	}
	logFinalStats(ctx, log, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%d formations failed verification", stats.Mismatches)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// submitAll posts every request through a pool of cfg.Workers submitters.
// Only distinct jobs are returned.
func submitAll(ctx context.Context, client *Client, cfg *Config, requests []types.FormationRequest, stats *Stats) []submission {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		subs []submission
		jobs = make(map[string]struct{})
		ch   = make(chan types.FormationRequest, cfg.Workers*2)
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range ch {
				res, err := submitWithRetry(ctx, client, cfg, req)

				mu.Lock()
				stats.Submitted++
				switch {
				case errors.Is(err, ErrBackpressure):
					stats.Rejected++
				case err != nil:
					stats.Failed++
				case res.Duplicate:
					stats.Duplicate++
				default:
					stats.Accepted++
				}
				if err == nil {
					if _, ok := jobs[res.Job.ID]; !ok {
						jobs[res.Job.ID] = struct{}{}
						subs = append(subs, submission{req: req, jobID: res.Job.ID})
					}
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, req := range requests {
			select {
			case <-ctx.Done():
				return
			case ch <- req:
			}
		}
	}()

	wg.Wait()
	return subs
}

func submitWithRetry(ctx context.Context, client *Client, cfg *Config, req types.FormationRequest) (SubmitResult, error) { //nolint:gocritic // hugeParam: requests are values
	var (
		res SubmitResult
		err error
	)
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		res, err = client.Submit(ctx, req)
		if !errors.Is(err, ErrBackpressure) {
			return res, err
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
	return res, err
}

// verifyAll polls every job to completion and checks its formation.
func verifyAll(ctx context.Context, client *Client, cfg *Config, subs []submission, stats *Stats, log logger.Logger) {
	verifier := NewVerifier(cfg.Categories, cfg.MaxRating)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
		ch = make(chan submission)
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				rec, err := poll(ctx, client, cfg, sub.jobID)

				mu.Lock()
				switch {
				case err != nil:
					stats.TimedOut++
				case rec.Status == model.JobFailed:
					stats.JobsFailed++
					log.Warn(ctx, "job failed", logger.String("job_id", rec.ID), logger.String("error", rec.Error))
				default:
					stats.Completed++
					if verr := verifier.Verify(sub.req, rec.Formation); verr != nil {
						stats.Mismatches++
						log.Error(ctx, "formation failed verification", logger.String("job_id", rec.ID), logger.Error(verr))
					} else {
						stats.Verified++
						stats.Balances = append(stats.Balances, rec.Formation.TotalBalance)
						if !rec.Formation.Valid {
							stats.Invalid++
						}
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			break feed
		case ch <- sub:
		}
	}
	close(ch)
	wg.Wait()
}

// poll waits until the job is done or failed.
func poll(ctx context.Context, client *Client, cfg *Config, id string) (model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		rec, err := client.Job(ctx, id)
		if err == nil && (rec.Status == model.JobDone || rec.Status == model.JobFailed) {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
			return rec, fmt.Errorf("poll job %s: %w", id, err)
		case <-ticker.C:
		}
	}
}

// saveRequests writes the generated requests as a JSON array.
func saveRequests(filename string, requests []types.FormationRequest) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal requests: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// logFinalStats logs the run summary.
func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var jobsPerSecond float64
	if stats.Duration > 0 {
		jobsPerSecond = float64(stats.Completed) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("completed", stats.Completed),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("timedOut", stats.TimedOut),
		logger.Int("verified", stats.Verified),
		logger.Int("invalid", stats.Invalid),
		logger.Int("mismatches", stats.Mismatches),
		logger.Float64("balanceMean", stats.BalanceMean),
		logger.Float64("balanceStdDev", stats.BalanceStdDev),
		logger.Duration("duration", stats.Duration),
		logger.Float64("jobsPerSecond", jobsPerSecond),
	)
}
