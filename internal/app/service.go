// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/lineup/internal/adapters/mq/queue"
	workerpool "github.com/okian/lineup/internal/adapters/mq/worker"
	repository "github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/config"
	"github.com/okian/lineup/internal/domain/balance"
	"github.com/okian/lineup/internal/domain/dedupe"
	"github.com/okian/lineup/internal/domain/formulator"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultDedupeSize = 50000
	defaultMaxResults = 10000
	defaultListLimit  = 100

	defaultMaxIterations     = 100000
	defaultMaxPopulationSize = 1000
	stopTimeout       = 10 * time.Second
)

// Service implements the API dependencies for the team formulation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	scorer     *balance.Scorer
	formulator *formulator.Formulator
	records    repository.Store
	deduper    dedupe.Deduper
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	maxResults      int
	maxListLimit    int
	categories      []string
	maxRating       float64
	defaultStrategy string
	defaults        search.Config
	seed            uint64

	// Per-request ceilings on run cost.
	maxIterations     int
	maxPopulationSize int
	clock           func() time.Time

	// State
	started bool

	logger  logger.Logger
	logOnce sync.Once
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the request id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxResults bounds the number of job records kept.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithMaxListLimit caps the number of records List returns.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithCategories sets the rating categories.
func WithCategories(categories ...string) Option {
	return func(s *Service) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// WithMaxRating sets the top of the rating scale.
func WithMaxRating(maxRating float64) Option {
	return func(s *Service) {
		if maxRating > 0 {
			s.maxRating = maxRating
		}
	}
}

// WithDefaultStrategy sets the strategy used when a request names none.
func WithDefaultStrategy(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultStrategy = name
		}
	}
}

// WithSearchDefaults sets the knobs requests fall back to.
func WithSearchDefaults(cfg search.Config) Option {
	return func(s *Service) {
		s.defaults = cfg
	}
}

// WithLimits caps the iterations and population size a request may ask for.
func WithLimits(maxIterations, maxPopulationSize int) Option {
	return func(s *Service) {
		if maxIterations > 0 {
			s.maxIterations = maxIterations
		}
		if maxPopulationSize > 0 {
			s.maxPopulationSize = maxPopulationSize
		}
	}
}

// WithSeed fixes the seed used when a request carries none. Zero means time based.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithConfig applies every setting of a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		for _, opt := range []Option{
			WithWorkerCount(cfg.WorkerCount),
			WithQueueSize(cfg.QueueSize),
			WithDedupeSize(cfg.DedupeSize),
			WithMaxResults(cfg.MaxResults),
			WithMaxListLimit(cfg.MaxListLimit),
			WithCategories(cfg.Categories...),
			WithMaxRating(cfg.MaxRating),
			WithDefaultStrategy(cfg.Search.Strategy),
			WithSearchDefaults(cfg.SearchConfig()),
			WithSeed(cfg.Search.Seed),
			WithLimits(cfg.Search.MaxIterations, cfg.Search.MaxPopulationSize),
		} {
			opt(s)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxResults:      defaultMaxResults,
		maxListLimit:    defaultListLimit,
		maxRating:       balance.DefaultMaxRating,
		defaultStrategy: search.NameEpsilonGreedy,
		defaults:        search.DefaultConfig(),

		maxIterations:     defaultMaxIterations,
		maxPopulationSize: defaultMaxPopulationSize,
		clock:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	scorerOpts := []balance.Option{balance.WithMaxRating(s.maxRating)}
	if len(s.categories) > 0 {
		scorerOpts = append(scorerOpts, balance.WithCategories(s.categories...))
	}
	s.scorer = balance.New(scorerOpts...)
	s.formulator = formulator.New(s.scorer)
	s.records = repository.NewLRUStore(repository.WithCapacity(s.maxResults))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.log().Info(ctx, "starting lineup service...")

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.records)
	// Workers outlive the request that started them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.log().Info(ctx, "lineup service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxResults", s.maxResults),
	)

	return nil
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.log().Info(ctx, "stopping lineup service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.log().Warn(ctx, "worker pool did not drain", logger.Error(err))
	}

	s.started = false
	s.log().Info(ctx, "lineup service stopped")
}

// Formulate runs one request synchronously.
func (s *Service) Formulate(ctx context.Context, req types.FormationRequest) (model.Formation, error) { //nolint:gocritic // hugeParam: requests are values
	p, err := s.plan(req)
	if err != nil {
		return model.Formation{}, err
	}
	return s.execute(ctx, p.strategy, p)
}

// Run implements worker.Runner.
func (s *Service) Run(ctx context.Context, job model.Job) (model.Formation, error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	return s.Formulate(ctx, job.Request)
}

// Compare runs every registered strategy on the same roster and seed.
// Valid formations come first, each group ordered by total balance.
func (s *Service) Compare(ctx context.Context, req types.FormationRequest) ([]model.Formation, error) { //nolint:gocritic // hugeParam: requests are values
	p, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	names := search.Names()
	out := make([]model.Formation, 0, len(names))
	for _, name := range names {
		f, err := s.execute(ctx, name, p)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", name, err)
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Valid != out[j].Valid {
			return out[i].Valid
		}
		return out[i].TotalBalance < out[j].TotalBalance
	})
	return out, nil
}

// Submit validates the request and enqueues it. A request id that was seen
// before returns the earlier job's record and true.
func (s *Service) Submit(ctx context.Context, req types.FormationRequest) (model.Record, bool, error) { //nolint:gocritic // hugeParam: requests are values
	p, err := s.plan(req)
	if err != nil {
		return model.Record{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Record{}, false, ErrNotStarted
	}

	jobID := uuid.NewString()
	if req.RequestID != "" {
		if existing, seen := s.deduper.SeenAndRecord(ctx, req.RequestID, jobID); seen {
			metrics.RecordJobDuplicate()
			s.log().Debug(ctx, "duplicate request",
				logger.String("request_id", req.RequestID),
				logger.String("job_id", existing),
			)
			rec, err := s.records.Get(ctx, existing)
			if err != nil {
				// Evicted from the store while still in the dedupe cache.
				rec = model.Record{ID: existing, RequestID: req.RequestID, Status: model.JobPending, Strategy: p.strategy}
			}
			return rec, true, nil
		}
	}

	// Pin the resolved strategy and seed so the record reflects what will run.
	req.Strategy = p.strategy
	req.Seed = p.seed
	job := model.Job{ID: jobID, Request: req, SubmittedAt: s.clock()}
	rec := model.Record{
		ID:          jobID,
		RequestID:   req.RequestID,
		Status:      model.JobPending,
		Strategy:    p.strategy,
		Players:     len(p.players),
		SubmittedAt: job.SubmittedAt,
	}
	if err := s.records.Put(ctx, rec); err != nil {
		s.unrecord(ctx, req.RequestID)
		return model.Record{}, false, fmt.Errorf("store job %s: %w", jobID, err)
	}

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.unrecord(ctx, req.RequestID)
		rec.Status = model.JobFailed
		rec.Error = err.Error()
		rec.FinishedAt = s.clock()
		_ = s.records.Put(ctx, rec)
		if errors.Is(err, jobqueue.ErrFull) || errors.Is(err, jobqueue.ErrClosed) {
			return model.Record{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Record{}, false, err
	}

	metrics.RecordJobSubmitted()
	s.log().Debug(ctx, "job submitted",
		logger.String("job_id", jobID),
		logger.String("strategy", p.strategy),
		logger.Int("players", len(p.players)),
	)
	return rec, false, nil
}

// Get returns the record of one job.
func (s *Service) Get(ctx context.Context, id string) (model.Record, error) {
	return s.records.Get(ctx, id)
}

// List returns the newest records. A limit of 0 or above the configured cap
// returns the cap.
func (s *Service) List(ctx context.Context, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, repository.ErrInvalidLimit
	}
	if limit == 0 || limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	return s.records.List(ctx, limit)
}

// Strategies describes the registered strategies.
func (s *Service) Strategies() []types.StrategyInfo {
	return search.Catalog()
}

// Categories returns the configured rating categories.
func (s *Service) Categories() []string {
	return s.scorer.Categories()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"maxResults":      s.maxResults,
		"maxIterations":   s.maxIterations,
		"maxPopulation":   s.maxPopulationSize,
		"categories":      s.scorer.Categories(),
		"maxRating":       s.scorer.MaxRating(),
		"defaultStrategy": s.defaultStrategy,
		"records":         s.records.Count(ctx),
		"requestIds":      s.deduper.Size(),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// plan is a validated request.
type plan struct {
	strategy string
	players  []model.Player
	cfg      search.Config
	seed     uint64
}

func (s *Service) plan(req types.FormationRequest) (plan, error) { //nolint:gocritic // hugeParam: requests are values
	name := req.Strategy
	if name == "" {
		name = s.defaultStrategy
	}
	name, err := search.Resolve(name)
	if err != nil {
		return plan{}, err
	}

	roster := make(model.Roster, len(req.Players))
	for id, ratings := range req.Players {
		r := make(model.Ratings, len(ratings))
		for category, score := range ratings {
			r[category] = float64(score)
		}
		roster[id] = r
	}
	players, err := roster.Normalize(s.scorer.Categories(), s.scorer.MaxRating())
	if err != nil {
		return plan{}, err
	}

	cfg := s.defaults.With(overrides(s.defaults, req)...)
	if err := cfg.Validate(); err != nil {
		return plan{}, err
	}
	if err := s.withinLimits(cfg, len(players)); err != nil {
		return plan{}, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.seed
	}
	if seed == 0 {
		seed = uint64(s.clock().UnixNano()) //nolint:gosec // nanoseconds since epoch are positive
	}

	return plan{strategy: name, players: players, cfg: cfg, seed: seed}, nil
}

// withinLimits rejects runs larger than the service is configured to serve.
func (s *Service) withinLimits(cfg search.Config, players int) error {
	switch {
	case cfg.NumTeams > players:
		return fmt.Errorf("%w: num_teams %d exceeds %d players", search.ErrInvalidConfiguration, cfg.NumTeams, players)
	case cfg.Iterations > s.maxIterations:
		return fmt.Errorf("%w: iterations %d above limit %d", search.ErrInvalidConfiguration, cfg.Iterations, s.maxIterations)
	case cfg.PopulationSize > s.maxPopulationSize:
		return fmt.Errorf("%w: population_size %d above limit %d", search.ErrInvalidConfiguration, cfg.PopulationSize, s.maxPopulationSize)
	}
	return nil
}

// overrides turns the request's knobs into search options. Absent knobs are skipped.
func overrides(base search.Config, req types.FormationRequest) []search.Option { //nolint:gocritic // hugeParam: requests are values
	var opts []search.Option
	if req.NumTeams != 0 {
		opts = append(opts, search.WithNumTeams(req.NumTeams))
	}
	if req.Iterations != 0 {
		opts = append(opts, search.WithIterations(req.Iterations))
	}
	if req.Epsilon != nil {
		opts = append(opts, search.WithEpsilon(*req.Epsilon))
	}
	if req.ExplorationFactor != nil {
		opts = append(opts, search.WithExplorationFactor(*req.ExplorationFactor))
	}
	if req.Alpha != nil || req.Beta != nil {
		alpha, beta := base.Alpha, base.Beta
		if req.Alpha != nil {
			alpha = *req.Alpha
		}
		if req.Beta != nil {
			beta = *req.Beta
		}
		opts = append(opts, search.WithPrior(alpha, beta))
	}
	if req.PopulationSize != 0 {
		opts = append(opts, search.WithPopulationSize(req.PopulationSize))
	}
	if req.MutationRate != nil {
		opts = append(opts, search.WithMutationRate(*req.MutationRate))
	}
	return opts
}

func (s *Service) execute(ctx context.Context, name string, p plan) (model.Formation, error) { //nolint:gocritic // hugeParam: plan is small and read-only
	strategy, err := search.New(name, p.players, s.scorer, p.cfg, search.NewSource(p.seed))
	if err != nil {
		return model.Formation{}, err
	}
	f, err := s.formulator.Formulate(ctx, strategy)
	if err != nil {
		return model.Formation{}, err
	}
	f.Seed = p.seed
	return f, nil
}

func (s *Service) unrecord(ctx context.Context, requestID string) {
	if requestID != "" {
		s.deduper.Unrecord(ctx, requestID)
	}
}

func (s *Service) log() logger.Logger {
	s.logOnce.Do(func() {
		if s.logger == nil {
			s.logger = logger.Get().Named("service")
		}
	})
	return s.logger
}
