package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradeidea/roast-service/internal/api/metrics"
	"github.com/gradeidea/roast-service/internal/core/domain"
	"github.com/gradeidea/roast-service/internal/core/ports"
)

// minIdeaLength is the minimum trimmed length of an idea text.
const minIdeaLength = 6

// DedupChecker abstracts the completion idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, jobID, sessionID string) (bool, error)
	Mark(ctx context.Context, jobID, sessionID string) error
}

// RoastService orchestrates the roast job lifecycle: funding authorization,
// job creation, generation, and terminal status updates.
type RoastService struct {
	jobs      ports.JobRepository
	ledger    ports.TokenLedger
	generator ports.RoastGenerator
	payments  ports.PaymentProvider
	dedup     DedupChecker
	log       zerolog.Logger
}

func NewRoastService(
	jobs ports.JobRepository,
	ledger ports.TokenLedger,
	generator ports.RoastGenerator,
	payments ports.PaymentProvider,
	dedup DedupChecker,
	log zerolog.Logger,
) *RoastService {
	return &RoastService{
		jobs:      jobs,
		ledger:    ledger,
		generator: generator,
		payments:  payments,
		dedup:     dedup,
		log:       log,
	}
}

// Start handles a token-funded roast. The caller must resolve to a known
// owner; guests and under-funded owners get domain.ErrPaymentRequired /
// domain.ErrInsufficientBalance without any job being created. The token is
// debited before the job exists and is not refunded when generation fails.
func (s *RoastService) Start(ctx context.Context, in ports.StartRoastInput) (*ports.StartRoastResult, error) {
	idea, err := validateIdea(in.Input)
	if err != nil {
		return nil, err
	}
	// The token-funded path rejects an out-of-range harshness; the checkout
	// path defaults it instead.
	if in.Harshness < domain.HarshnessMin || in.Harshness > domain.HarshnessMax {
		return nil, fmt.Errorf("%w: harshness must be between %d and %d",
			domain.ErrInvalidInput, domain.HarshnessMin, domain.HarshnessMax)
	}
	if in.Owner == "" {
		return nil, domain.ErrPaymentRequired
	}

	if err := s.ledger.TryDebitOne(ctx, in.Owner); err != nil {
		metrics.TokenDebitsTotal.WithLabelValues("insufficient").Inc()
		s.log.Info().Str("owner", in.Owner).Msg("debit refused")
		return nil, err
	}
	metrics.TokenDebitsTotal.WithLabelValues("ok").Inc()

	job := &domain.Job{
		Input:     idea,
		Harshness: in.Harshness,
		Owner:     in.Owner,
		Funding:   domain.FundingToken,
		Paid:      true,
		Status:    domain.StatusProcessing,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.log.Error().Err(err).Str("owner", in.Owner).Msg("failed to create job")
		return nil, err
	}
	metrics.RoastsStartedTotal.WithLabelValues(string(domain.FundingToken)).Inc()
	s.log.Info().Str("job_id", job.ID).Str("owner", in.Owner).Msg("token-funded roast started")

	if err := s.runGeneration(ctx, job); err != nil {
		return nil, err
	}

	return &ports.StartRoastResult{JobID: job.ID, Status: string(job.Status)}, nil
}

// StartCheckout handles a payment-funded roast: the job is created pending
// and unpaid, then a hosted checkout session is opened for it. The session id
// is persisted onto the job so the completion webhook can be cross-checked.
func (s *RoastService) StartCheckout(ctx context.Context, in ports.StartCheckoutInput) (*ports.StartCheckoutResult, error) {
	idea, err := validateIdea(in.Input)
	if err != nil {
		return nil, err
	}
	harshness := in.Harshness
	if harshness < domain.HarshnessMin || harshness > domain.HarshnessMax {
		harshness = domain.HarshnessDefault
	}

	job := &domain.Job{
		Input:     idea,
		Harshness: harshness,
		Funding:   domain.FundingPayment,
		Paid:      false,
		Status:    domain.StatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.log.Error().Err(err).Msg("failed to create job")
		return nil, err
	}
	metrics.RoastsStartedTotal.WithLabelValues(string(domain.FundingPayment)).Inc()

	session, err := s.payments.CreateSession(ctx, job.ID)
	if err != nil {
		s.failJob(ctx, job)
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to create checkout session")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.jobs.Update(ctx, job.ID, ports.JobUpdate{PaymentSessionID: &session.ID}); err != nil {
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to persist session id")
	}

	s.log.Info().Str("job_id", job.ID).Str("session_id", session.ID).Msg("checkout started")

	return &ports.StartCheckoutResult{
		JobID:       job.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// ProcessCompletion applies a confirmed payment to a pending job and runs
// generation. Duplicate deliveries are tolerated: a Redis dedup key and the
// terminal-status check both make re-application a no-op.
func (s *RoastService) ProcessCompletion(ctx context.Context, in ports.PaymentCompletionInput) error {
	isDup, err := s.dedup.IsDuplicate(ctx, in.JobID, in.SessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("job_id", in.JobID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.CompletionDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("job_id", in.JobID).Msg("duplicate completion skipped")
		return nil
	}
	metrics.CompletionDedupTotal.WithLabelValues("miss").Inc()

	job, err := s.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return fmt.Errorf("process completion: %w", err)
	}

	if job.Status.Terminal() {
		s.log.Debug().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("completion replay on terminal job ignored")
		return nil
	}
	if job.Funding != domain.FundingPayment {
		return fmt.Errorf("process completion: %w (funding %s)", domain.ErrSessionMismatch, job.Funding)
	}
	if job.PaymentSessionID != "" && job.PaymentSessionID != in.SessionID {
		return fmt.Errorf("process completion: %w", domain.ErrSessionMismatch)
	}
	if !job.Status.CanTransitionTo(domain.StatusProcessing) {
		return fmt.Errorf("process completion: %w (from %s)", domain.ErrInvalidTransition, job.Status)
	}

	// Mark as processed before writing (prevents duplicate processing on retry).
	if markErr := s.dedup.Mark(ctx, in.JobID, in.SessionID); markErr != nil {
		s.log.Warn().Err(markErr).Str("job_id", in.JobID).Msg("failed to set dedup key")
	}

	paid := true
	processing := domain.StatusProcessing
	if err := s.jobs.Update(ctx, job.ID, ports.JobUpdate{Status: &processing, Paid: &paid}); err != nil {
		return fmt.Errorf("process completion: update status: %w", err)
	}
	job.Status = processing
	job.Paid = true

	s.log.Info().Str("job_id", job.ID).Str("session_id", in.SessionID).Msg("payment confirmed, generating")

	return s.runGeneration(ctx, job)
}

// Get returns the poll view of a job. Side-effect free: repeated calls while
// the job is non-terminal never re-trigger generation.
func (s *RoastService) Get(ctx context.Context, id string) (*ports.RoastDetail, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ports.RoastDetail{
		JobID:     job.ID,
		Status:    string(job.Status),
		Funding:   string(job.Funding),
		Paid:      job.Paid,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Status == domain.StatusReady && job.Result != nil {
		detail.Result = &ports.RoastResultView{
			Title:     job.Result.Title,
			Zingers:   job.Result.Zingers,
			Insights:  job.Result.Insights,
			Verdict:   job.Result.Verdict,
			RiskScore: job.Result.RiskScore,
		}
	}
	return detail, nil
}

// CheckoutPaid reports whether the hosted checkout session has been paid.
// Delegated entirely to the provider; this core does not interpret sessions
// beyond the boolean.
func (s *RoastService) CheckoutPaid(ctx context.Context, sessionID string) (bool, error) {
	return s.payments.SessionPaid(ctx, sessionID)
}

// runGeneration invokes the external generation capability and drives the job
// to its terminal status. The cost (token or payment) is already settled and
// is not refunded on failure.
func (s *RoastService) runGeneration(ctx context.Context, job *domain.Job) error {
	start := time.Now()
	result, err := s.generator.Generate(ctx, job.Input, job.Harshness)
	if err != nil {
		metrics.GenerationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.failJob(ctx, job)
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("generation failed")
		return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	metrics.GenerationDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	ready := domain.StatusReady
	if !job.Status.CanTransitionTo(ready) {
		return fmt.Errorf("complete job: %w (from %s)", domain.ErrInvalidTransition, job.Status)
	}
	if err := s.jobs.Update(ctx, job.ID, ports.JobUpdate{Status: &ready, Result: result}); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist result")
		return err
	}
	job.Status = ready
	job.Result = result

	metrics.RoastsCompletedTotal.WithLabelValues(string(ready)).Inc()
	s.log.Info().
		Str("job_id", job.ID).
		Float64("risk_score", result.RiskScore).
		Msg("roast ready")

	return nil
}

// failJob moves a job to error when the transition is legal. Best effort:
// polling clients must observe a terminal state rather than hang.
func (s *RoastService) failJob(ctx context.Context, job *domain.Job) {
	failed := domain.StatusError
	if !job.Status.CanTransitionTo(failed) {
		return
	}
	if err := s.jobs.Update(ctx, job.ID, ports.JobUpdate{Status: &failed}); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job as error")
		return
	}
	job.Status = failed
	metrics.RoastsCompletedTotal.WithLabelValues(string(failed)).Inc()
}

// validateIdea trims and checks the idea text shared by both start paths.
func validateIdea(input string) (string, error) {
	idea := strings.TrimSpace(input)
	if len(idea) < minIdeaLength {
		return "", fmt.Errorf("%w: idea text must be at least %d characters", domain.ErrInvalidInput, minIdeaLength)
	}
	return idea, nil
}
