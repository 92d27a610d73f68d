package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gradeidea/roast-service/internal/core/domain"
	"github.com/gradeidea/roast-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	nextID int
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[string]*domain.Job)}
}

func (r *stubJobRepo) Create(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = fmt.Sprintf("job_%d", r.nextID)
	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *stubJobRepo) Update(_ context.Context, id string, upd ports.JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Paid != nil {
		job.Paid = *upd.Paid
	}
	if upd.PaymentSessionID != nil {
		job.PaymentSessionID = *upd.PaymentSessionID
	}
	return nil
}

func (r *stubJobRepo) FindByID(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (r *stubJobRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// stubLedger mirrors the Mongo implementation's semantics: the balance check
// and the decrement happen under one lock, so debits are atomic.
type stubLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func newStubLedger() *stubLedger {
	return &stubLedger{balances: make(map[string]int)}
}

func (l *stubLedger) Balance(_ context.Context, owner string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[owner], nil
}

func (l *stubLedger) TryDebitOne(_ context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[owner] < 1 {
		return domain.ErrInsufficientBalance
	}
	l.balances[owner]--
	return nil
}

func (l *stubLedger) Credit(_ context.Context, owner string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[owner] += amount
	return nil
}

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ int) (*domain.RoastResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &domain.RoastResult{
		Title:     "A bold plan",
		Zingers:   []string{"your moat is a puddle"},
		Insights:  []string{"talk to ten customers first"},
		Verdict:   "risky but not hopeless",
		RiskScore: 7,
	}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubPayments struct {
	sessions  int
	paid      map[string]bool
	createErr error
}

func (p *stubPayments) CreateSession(_ context.Context, jobID string) (*ports.CheckoutSession, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.sessions++
	id := fmt.Sprintf("sess_%d", p.sessions)
	return &ports.CheckoutSession{ID: id, URL: "https://pay.example.com/" + id}, nil
}

func (p *stubPayments) SessionPaid(_ context.Context, sessionID string) (bool, error) {
	return p.paid[sessionID], nil
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, jobID, sessionID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[jobID+":"+sessionID], nil
}

func (d *stubDedup) Mark(_ context.Context, jobID, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[jobID+":"+sessionID] = true
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	jobs      *stubJobRepo
	ledger    *stubLedger
	generator *stubGenerator
	payments  *stubPayments
	dedup     *stubDedup
	svc       *RoastService
}

func newFixture() *fixture {
	f := &fixture{
		jobs:      newStubJobRepo(),
		ledger:    newStubLedger(),
		generator: &stubGenerator{},
		payments:  &stubPayments{paid: make(map[string]bool)},
		dedup:     newStubDedup(),
	}
	f.svc = NewRoastService(f.jobs, f.ledger, f.generator, f.payments, f.dedup, discardLogger)
	return f
}

const validIdea = "an app that roasts startup ideas"

// ---------------------------------------------------------------------------
// Token-funded start
// ---------------------------------------------------------------------------

func TestStart_Success(t *testing.T) {
	f := newFixture()
	f.ledger.balances["user_1"] = 3

	result, err := f.svc.Start(context.Background(), ports.StartRoastInput{
		Input: validIdea, Harshness: 2, Owner: "user_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != string(domain.StatusReady) {
		t.Errorf("expected status ready, got %q", result.Status)
	}

	balance, _ := f.ledger.Balance(context.Background(), "user_1")
	if balance != 2 {
		t.Errorf("expected balance 2 after debit, got %d", balance)
	}

	job, err := f.jobs.FindByID(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.Status != domain.StatusReady {
		t.Errorf("expected job ready, got %s", job.Status)
	}
	if job.Result == nil {
		t.Fatal("ready job must have a result")
	}
	if job.Result.RiskScore < 1 || job.Result.RiskScore > 10 {
		t.Errorf("risk score out of range: %f", job.Result.RiskScore)
	}
	if job.Funding != domain.FundingToken || !job.Paid {
		t.Errorf("expected paid token-funded job, got funding=%s paid=%v", job.Funding, job.Paid)
	}
}

func TestStart_Guest_PaymentRequired(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Start(context.Background(), ports.StartRoastInput{
		Input: validIdea, Harshness: 2, Owner: "",
	})
	if !errors.Is(err, domain.ErrPaymentRequired) {
		t.Fatalf("expected ErrPaymentRequired, got %v", err)
	}
	if f.jobs.count() != 0 {
		t.Errorf("no job must be created for guests, got %d", f.jobs.count())
	}
}

func TestStart_InsufficientBalance_NoJob(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Start(context.Background(), ports.StartRoastInput{
		Input: validIdea, Harshness: 2, Owner: "user_1",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if f.jobs.count() != 0 {
		t.Errorf("no job must be created on refused debit, got %d", f.jobs.count())
	}
	if f.generator.callCount() != 0 {
		t.Errorf("generation must not run, got %d calls", f.generator.callCount())
	}
}

func TestStart_GenerationFailure_NoRefund(t *testing.T) {
	f := newFixture()
	f.ledger.balances["user_1"] = 1
	f.generator.err = errors.New("model exploded")

	result, err := f.svc.Start(context.Background(), ports.StartRoastInput{
		Input: validIdea, Harshness: 2, Owner: "user_1",
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}

	// The token stays spent.
	balance, _ := f.ledger.Balance(context.Background(), "user_1")
	if balance != 0 {
		t.Errorf("expected balance 0 (no refund), got %d", balance)
	}

	// The job is terminal error with no result.
	if f.jobs.count() != 1 {
		t.Fatalf("expected 1 job, got %d", f.jobs.count())
	}
	for id := range f.jobs.jobs {
		job, _ := f.jobs.FindByID(context.Background(), id)
		if job.Status != domain.StatusError {
			t.Errorf("expected status error, got %s", job.Status)
		}
		if job.Result != nil {
			t.Error("failed job must not carry a result")
		}
	}
}

func TestStart_ShortInput_Rejected(t *testing.T) {
	f := newFixture()
	f.ledger.balances["user_1"] = 1

	for _, input := range []string{"hi", "  hi  ", "12345", ""} {
		_, err := f.svc.Start(context.Background(), ports.StartRoastInput{
			Input: input, Harshness: 2, Owner: "user_1",
		})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("input %q: expected ErrInvalidInput, got %v", input, err)
		}
	}

	balance, _ := f.ledger.Balance(context.Background(), "user_1")
	if balance != 1 {
		t.Errorf("rejected input must not debit, balance %d", balance)
	}
	if f.jobs.count() != 0 {
		t.Errorf("rejected input must not create jobs, got %d", f.jobs.count())
	}
}

func TestStart_InvalidHarshness_Rejected(t *testing.T) {
	f := newFixture()
	f.ledger.balances["user_1"] = 1

	for _, harshness := range []int{0, 4, -1, 99} {
		_, err := f.svc.Start(context.Background(), ports.StartRoastInput{
			Input: validIdea, Harshness: harshness, Owner: "user_1",
		})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("harshness %d: expected ErrInvalidInput, got %v", harshness, err)
		}
	}
}

func TestStart_ConcurrentDebits_NeverExceedBalance(t *testing.T) {
	f := newFixture()
	const balance = 5
	const attempts = 20
	f.ledger.balances["user_1"] = balance

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(context.Background(), ports.StartRoastInput{
				Input: validIdea, Harshness: 2, Owner: "user_1",
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != balance {
		t.Errorf("expected exactly %d successes, got %d", balance, successes)
	}
	remaining, _ := f.ledger.Balance(context.Background(), "user_1")
	if remaining != 0 {
		t.Errorf("expected balance 0, got %d", remaining)
	}
	if remaining < 0 {
		t.Error("balance must never go negative")
	}
	if f.jobs.count() != balance {
		t.Errorf("expected %d jobs, got %d", balance, f.jobs.count())
	}
}

// ---------------------------------------------------------------------------
// Checkout start
// ---------------------------------------------------------------------------

func TestStartCheckout_CreatesPendingUnpaidJob(t *testing.T) {
	f := newFixture()

	result, err := f.svc.StartCheckout(context.Background(), ports.StartCheckoutInput{
		Input: validIdea, Harshness: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CheckoutURL == "" || result.SessionID == "" {
		t.Errorf("incomplete checkout result: %+v", result)
	}

	job, err := f.jobs.FindByID(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}
	if job.Paid {
		t.Error("checkout job must start unpaid")
	}
	if job.Funding != domain.FundingPayment {
		t.Errorf("expected payment funding, got %s", job.Funding)
	}
	if job.PaymentSessionID != result.SessionID {
		t.Errorf("session id not persisted: %q vs %q", job.PaymentSessionID, result.SessionID)
	}
	if f.generator.callCount() != 0 {
		t.Error("generation must not run before payment")
	}
}

func TestStartCheckout_DefaultsInvalidHarshness(t *testing.T) {
	f := newFixture()

	result, err := f.svc.StartCheckout(context.Background(), ports.StartCheckoutInput{
		Input: validIdea, Harshness: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job, _ := f.jobs.FindByID(context.Background(), result.JobID)
	if job.Harshness != domain.HarshnessDefault {
		t.Errorf("expected harshness defaulted to %d, got %d", domain.HarshnessDefault, job.Harshness)
	}
}

func TestStartCheckout_ShortInput_Rejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.StartCheckout(context.Background(), ports.StartCheckoutInput{
		Input: "hi", Harshness: 2,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.jobs.count() != 0 {
		t.Errorf("no job must be created, got %d", f.jobs.count())
	}
}

func TestStartCheckout_SessionFailure_MarksJobError(t *testing.T) {
	f := newFixture()
	f.payments.createErr = errors.New("provider down")

	_, err := f.svc.StartCheckout(context.Background(), ports.StartCheckoutInput{
		Input: validIdea, Harshness: 2,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	for id := range f.jobs.jobs {
		job, _ := f.jobs.FindByID(context.Background(), id)
		if job.Status != domain.StatusError {
			t.Errorf("expected error status, got %s", job.Status)
		}
	}
}

// ---------------------------------------------------------------------------
// Payment completion
// ---------------------------------------------------------------------------

func startCheckoutJob(t *testing.T, f *fixture) *ports.StartCheckoutResult {
	t.Helper()
	result, err := f.svc.StartCheckout(context.Background(), ports.StartCheckoutInput{
		Input: validIdea, Harshness: 2,
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	return result
}

func TestProcessCompletion_DrivesJobToReady(t *testing.T) {
	f := newFixture()
	checkout := startCheckoutJob(t, f)

	err := f.svc.ProcessCompletion(context.Background(), ports.PaymentCompletionInput{
		JobID: checkout.JobID, SessionID: checkout.SessionID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job, _ := f.jobs.FindByID(context.Background(), checkout.JobID)
	if job.Status != domain.StatusReady {
		t.Errorf("expected ready, got %s", job.Status)
	}
	if !job.Paid {
		t.Error("completed job must be paid")
	}
	if job.Result == nil {
		t.Fatal("ready job must have a result")
	}
}

func TestProcessCompletion_DuplicateDelivery_RunsGenerationOnce(t *testing.T) {
	f := newFixture()
	checkout := startCheckoutJob(t, f)

	input := ports.PaymentCompletionInput{JobID: checkout.JobID, SessionID: checkout.SessionID}
	for i := 0; i < 3; i++ {
		if err := f.svc.ProcessCompletion(context.Background(), input); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	if got := f.generator.callCount(); got != 1 {
		t.Errorf("expected 1 generation call, got %d", got)
	}
}

func TestProcessCompletion_TerminalJob_NoOp(t *testing.T) {
	f := newFixture()
	checkout := startCheckoutJob(t, f)

	// Drive to ready, then clear dedup state to simulate a late redelivery
	// after the key expired.
	input := ports.PaymentCompletionInput{JobID: checkout.JobID, SessionID: checkout.SessionID}
	if err := f.svc.ProcessCompletion(context.Background(), input); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	f.dedup.seen = make(map[string]bool)

	if err := f.svc.ProcessCompletion(context.Background(), input); err != nil {
		t.Fatalf("late redelivery must be a no-op, got %v", err)
	}
	if got := f.generator.callCount(); got != 1 {
		t.Errorf("expected 1 generation call, got %d", got)
	}
}

func TestProcessCompletion_SessionMismatch_Rejected(t *testing.T) {
	f := newFixture()
	checkout := startCheckoutJob(t, f)

	err := f.svc.ProcessCompletion(context.Background(), ports.PaymentCompletionInput{
		JobID: checkout.JobID, SessionID: "sess_forged",
	})
	if !errors.Is(err, domain.ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}
	if f.generator.callCount() != 0 {
		t.Error("generation must not run on mismatched session")
	}
}

func TestProcessCompletion_UnknownJob(t *testing.T) {
	f := newFixture()

	err := f.svc.ProcessCompletion(context.Background(), ports.PaymentCompletionInput{
		JobID: "job_missing", SessionID: "sess_1",
	})
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestGet_ResultPresentIffReady(t *testing.T) {
	f := newFixture()

	// Non-terminal: pending checkout job, no result.
	checkout := startCheckoutJob(t, f)
	detail, err := f.svc.Get(context.Background(), checkout.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Status != string(domain.StatusPending) {
		t.Errorf("expected pending, got %s", detail.Status)
	}
	if detail.Result != nil {
		t.Error("non-ready job must not expose a result")
	}

	// Repeated polling: identical output, no generation triggered.
	for i := 0; i < 3; i++ {
		again, err := f.svc.Get(context.Background(), checkout.JobID)
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if again.Status != detail.Status {
			t.Errorf("poll %d: status changed to %s", i, again.Status)
		}
	}
	if f.generator.callCount() != 0 {
		t.Error("polling must never trigger generation")
	}

	// Ready: result round-trips.
	f.ledger.balances["user_1"] = 1
	started, err := f.svc.Start(context.Background(), ports.StartRoastInput{
		Input: validIdea, Harshness: 2, Owner: "user_1",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ready, err := f.svc.Get(context.Background(), started.JobID)
	if err != nil {
		t.Fatalf("get ready: %v", err)
	}
	if ready.Result == nil {
		t.Fatal("ready job must expose its result")
	}
	if ready.Result.Title != "A bold plan" || ready.Result.RiskScore != 7 {
		t.Errorf("result did not round-trip: %+v", ready.Result)
	}
}

func TestGet_UnknownJob(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), "job_missing")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestCheckoutPaid_DelegatesToProvider(t *testing.T) {
	f := newFixture()
	f.payments.paid["sess_1"] = true

	paid, err := f.svc.CheckoutPaid(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !paid {
		t.Error("expected paid=true")
	}

	paid, _ = f.svc.CheckoutPaid(context.Background(), "sess_2")
	if paid {
		t.Error("expected paid=false for unknown session")
	}
}
