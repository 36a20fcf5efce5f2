package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legaltriad-backend/metrics"
	"legaltriad-backend/models"
	"legaltriad-backend/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider sends a composed request to the external reasoning service and
// returns its raw text
type Provider interface {
	Send(ctx context.Context, req *models.ServiceRequest) (string, error)
}

// RunRecorder keeps an audit trail of submissions
type RunRecorder interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	Complete(ctx context.Context, id uuid.UUID, articleCount int) error
	Fail(ctx context.Context, id uuid.UUID, errorKind, errorMessage string) error
}

// AnalysisService orchestrates one submission: compose, send once, validate,
// and move the session between its pre-submission and in-flight states
type AnalysisService struct {
	composer       *Composer
	validator      *Validator
	provider       Provider
	estimator      *ProgressEstimator
	runs           RunRecorder
	metrics        *metrics.Metrics
	logger         *zap.Logger
	settleDelay    time.Duration
	requestTimeout time.Duration
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithComposer sets the request composer
func WithComposer(c *Composer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.composer = c
	}
}

// WithValidator sets the result validator
func WithValidator(v *Validator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.validator = v
	}
}

// WithProvider sets the reasoning service. Leaving it unset makes every
// submission fail with ErrConfiguration.
func WithProvider(p Provider) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.provider = p
	}
}

// WithProgressEstimator sets the progress estimator
func WithProgressEstimator(e *ProgressEstimator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.estimator = e
	}
}

// WithRunRecorder sets the audit trail
func WithRunRecorder(r RunRecorder) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.runs = r
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = l
	}
}

// WithSettleDelay sets how long a completed run shows 100% before the
// in-flight state ends
func WithSettleDelay(d time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.settleDelay = d
	}
}

// WithRequestTimeout bounds one reasoning service call
func WithRequestTimeout(d time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.requestTimeout = d
	}
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) (*AnalysisService, error) {
	s := &AnalysisService{
		settleDelay:    500 * time.Millisecond,
		requestTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.composer == nil {
		return nil, errors.New("composer not set")
	}
	if s.validator == nil {
		return nil, errors.New("validator not set")
	}
	if s.estimator == nil {
		s.estimator = NewProgressEstimator(0)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Submission is a request that passed pre-flight checks and owns the
// session's in-flight state until Run returns
type Submission struct {
	session    *Session
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	request    *models.ServiceRequest
	runID      uuid.UUID
	started    time.Time
}

// Start performs pre-flight checks and puts the session in flight. Validation
// and configuration failures are stored on the session and returned without
// any network call. A second Start while one is pending fails with
// ErrSubmissionInFlight and leaves the session untouched.
func (s *AnalysisService) Start(ctx context.Context, sess *Session) (*Submission, error) {
	sess.mu.Lock()
	if sess.inFlight {
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(ErrorKind(ErrSubmissionInFlight))
		return nil, ErrSubmissionInFlight
	}

	in := sess.requestLocked()
	req, err := s.composer.Compose(in.Topic, in.Law, in.Doctrine, in.Jurisprudence)
	if err == nil && s.provider == nil {
		err = fmt.Errorf("%w: missing API key", ErrConfiguration)
	}
	if err != nil {
		sess.result = nil
		sess.failLocked(err)
		sess.mu.Unlock()
		s.metrics.ObserveSubmission(ErrorKind(err))
		s.logger.Info("submission rejected", zap.String("kind", ErrorKind(err)), zap.Error(err))
		return nil, err
	}

	// the submission outlives the caller's request; Reset cancels it
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess.generation++
	sub := &Submission{
		session:    sess,
		generation: sess.generation,
		ctx:        runCtx,
		cancel:     cancel,
		request:    req,
		runID:      uuid.New(),
		started:    time.Now(),
	}
	sess.inFlight = true
	sess.cancel = cancel
	sess.result = nil
	sess.errMsg = ""
	sess.errKind = ""
	sess.progress = s.estimator.Start()
	sess.mu.Unlock()

	s.recordStart(sub, in)
	return sub, nil
}

// Run sends the submission exactly once and settles the session on every
// exit path: the progress ticker is released and the in-flight flag cleared
func (s *AnalysisService) Run(sub *Submission) (*models.AnalysisResult, error) {
	defer sub.cancel()

	ctx, cancel := context.WithTimeout(sub.ctx, s.requestTimeout)
	defer cancel()

	callStart := time.Now()
	text, err := s.provider.Send(ctx, sub.request)
	s.metrics.ObserveProviderCall(time.Since(callStart))

	var result *models.AnalysisResult
	if err != nil {
		err = classifyTransport(err)
	} else {
		result, err = s.validator.Validate(text)
	}

	if err != nil {
		s.finishFailure(sub, err)
		return nil, err
	}
	s.finishSuccess(sub, result)
	return result, nil
}

// Process is Start followed by Run
func (s *AnalysisService) Process(ctx context.Context, sess *Session) (*models.AnalysisResult, error) {
	sub, err := s.Start(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.Run(sub)
}

func (s *AnalysisService) finishFailure(sub *Submission, err error) {
	sess := sub.session
	sess.mu.Lock()
	current := sess.generation == sub.generation
	if current {
		if sess.progress != nil {
			sess.progress.Stop()
		}
		sess.progress = nil
		sess.inFlight = false
		sess.cancel = nil
		sess.failLocked(err)
	}
	sess.mu.Unlock()

	kind := ErrorKind(err)
	s.metrics.ObserveSubmission(kind)
	s.logger.Warn("analysis failed",
		zap.String("run_id", sub.runID.String()),
		zap.String("kind", kind),
		zap.Bool("superseded", !current),
		zap.Duration("elapsed", time.Since(sub.started)),
		zap.Error(err))
	if s.runs != nil {
		if rerr := s.runs.Fail(context.Background(), sub.runID, kind, err.Error()); rerr != nil {
			s.logger.Warn("failed to record run failure", zap.Error(rerr))
		}
	}
}

func (s *AnalysisService) finishSuccess(sub *Submission, result *models.AnalysisResult) {
	sess := sub.session
	sess.mu.Lock()
	current := sess.generation == sub.generation
	if current {
		sess.result = result
		if sess.progress != nil {
			sess.progress.Complete()
		}
	}
	sess.mu.Unlock()

	s.metrics.ObserveSubmission("success")
	s.metrics.ObserveArticles(len(result.Articles))
	s.logger.Info("analysis completed",
		zap.String("run_id", sub.runID.String()),
		zap.String("law_name", result.LawName),
		zap.Int("articles", len(result.Articles)),
		zap.Bool("superseded", !current),
		zap.Duration("elapsed", time.Since(sub.started)))
	if s.runs != nil {
		if rerr := s.runs.Complete(context.Background(), sub.runID, len(result.Articles)); rerr != nil {
			s.logger.Warn("failed to record run completion", zap.Error(rerr))
		}
	}
	if !current {
		return
	}

	if s.settleDelay > 0 {
		t := time.NewTimer(s.settleDelay)
		select {
		case <-t.C:
		case <-sub.ctx.Done():
			t.Stop()
		}
	}

	sess.mu.Lock()
	if sess.generation == sub.generation {
		sess.inFlight = false
		sess.cancel = nil
	}
	sess.mu.Unlock()
}

func (s *AnalysisService) recordStart(sub *Submission, in models.AnalysisRequest) {
	s.metrics.ObserveDocuments(string(models.CategoryLaw), len(in.Law))
	s.metrics.ObserveDocuments(string(models.CategoryDoctrine), len(in.Doctrine))
	s.metrics.ObserveDocuments(string(models.CategoryJurisprudence), len(in.Jurisprudence))
	s.logger.Info("analysis started",
		zap.String("run_id", sub.runID.String()),
		zap.String("topic", in.Topic),
		zap.Int("law", len(in.Law)),
		zap.Int("doctrine", len(in.Doctrine)),
		zap.Int("jurisprudence", len(in.Jurisprudence)))
	if s.runs == nil {
		return
	}
	run := &models.AnalysisRun{
		ID:                 sub.runID,
		Topic:              in.Topic,
		Model:              sub.request.Model,
		LawCount:           len(in.Law),
		DoctrineCount:      len(in.Doctrine),
		JurisprudenceCount: len(in.Jurisprudence),
		Status:             models.RunStatusInProgress,
	}
	if err := s.runs.Create(context.Background(), run); err != nil {
		s.logger.Warn("failed to record run start", zap.Error(err))
	}
}

func classifyTransport(err error) error {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && apiErr.Oversized() {
		return fmt.Errorf("%w: %w: %v", ErrTransport, ErrPayloadTooLarge, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
