package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/gateway"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type paymentGateway interface {
	InitPayment(ctx context.Context, req gateway.InitPaymentRequest) (*gateway.InitPaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (string, error)
}

type attemptAuditor interface {
	Create(ctx context.Context, attempt *models.PaymentAttempt) error
	UpdateState(ctx context.Context, reference string, state models.AttemptState, attemptsMade int, message string, updatedAt time.Time) error
}

type checkoutFinalizer interface {
	PricedItems(ctx context.Context, draft models.EnrollmentDraft) ([]models.SelectedItem, int64, error)
	ValidateDraft(draft models.EnrollmentDraft) DraftFieldErrors
	Finalize(ctx context.Context, req FinalizeRequest) error
}

type checkoutObserver interface {
	ObserveCheckoutStarted()
	ObserveCheckoutOutcome(state models.AttemptState, attemptsMade int)
	ObserveVerifyCall(err error)
}

// attemptRun is the live state of one confirmation run. All mutable fields
// are guarded by the owning service's mutex.
type attemptRun struct {
	generation uint64
	attempt    models.PaymentAttempt
	draft      models.EnrollmentDraft
	items      []models.SelectedItem

	ctx       context.Context
	cancel    context.CancelFunc
	finalized bool
}

// PaymentService drives hosted-checkout confirmation. Starting a checkout
// initialises a payment with the processor, hands the authorization URL back
// to the caller and polls the processor for settlement on a fixed interval
// until it confirms, the attempt budget runs out, or the caller cancels.
// At most one attempt is live per checkout session.
type PaymentService struct {
	gateway  paymentGateway
	enrolls  checkoutFinalizer
	auditor  attemptAuditor
	metrics  checkoutObserver
	logger   *zap.Logger
	interval time.Duration
	maxPolls int
	currency string

	mu         sync.Mutex
	runs       map[string]*attemptRun
	byRef      map[string]*attemptRun
	generation uint64

	baseCtx  context.Context
	baseStop context.CancelFunc
	wg       sync.WaitGroup
}

// NewPaymentService constructs the service. auditor and metrics may be nil.
func NewPaymentService(gw paymentGateway, enrolls checkoutFinalizer, auditor attemptAuditor, metrics checkoutObserver, cfg config.CheckoutConfig, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxPolls := cfg.MaxPollAttempts
	if maxPolls <= 0 {
		maxPolls = 90
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "NGN"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PaymentService{
		gateway:  gw,
		enrolls:  enrolls,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		maxPolls: maxPolls,
		currency: currency,
		runs:     make(map[string]*attemptRun),
		byRef:    make(map[string]*attemptRun),
		baseCtx:  ctx,
		baseStop: cancel,
	}
}

// StartCheckout validates the draft, initialises a payment and launches the
// confirmation poller. Returns the attempt snapshot carrying the hosted
// checkout URL. Fails with ErrAttemptActive while a previous attempt for the
// session is still live.
func (s *PaymentService) StartCheckout(ctx context.Context, sessionID string, draft models.EnrollmentDraft) (*models.PaymentAttempt, error) {
	if fieldErrs := s.enrolls.ValidateDraft(draft); len(fieldErrs) > 0 {
		return nil, validationError(fieldErrs)
	}

	items, total, err := s.enrolls.PricedItems(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.runs[sessionID]; ok && !existing.attempt.State.Terminal() {
		s.mu.Unlock()
		return nil, appErrors.ErrAttemptActive
	}
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(s.baseCtx)
	run := &attemptRun{
		generation: gen,
		draft:      draft,
		items:      items,
		ctx:        runCtx,
		cancel:     cancel,
	}
	now := time.Now().UTC()
	run.attempt = models.PaymentAttempt{
		SessionID: sessionID,
		Email:     strings.TrimSpace(draft.Email),
		Amount:    total,
		Currency:  s.currency,
		State:     models.AttemptStateInitiating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.runs[sessionID] = run
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveCheckoutStarted()
	}

	initResp, err := s.gateway.InitPayment(ctx, gateway.InitPaymentRequest{
		Email:    run.attempt.Email,
		Amount:   total,
		Currency: s.currency,
		Metadata: map[string]interface{}{
			"courses": items,
			"student": map[string]string{
				"firstName": strings.TrimSpace(draft.FirstName),
				"lastName":  strings.TrimSpace(draft.LastName),
				"phone":     strings.TrimSpace(draft.Phone),
			},
		},
	})
	if err != nil {
		s.logger.Error("payment init failed", zap.String("session_id", sessionID), zap.Error(err))
		s.transition(run, models.AttemptStateFailed, "could not initiate payment")
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentInit.Code, appErrors.ErrPaymentInit.Status, appErrors.ErrPaymentInit.Message)
	}

	s.mu.Lock()
	run.attempt.Reference = initResp.Reference
	run.attempt.AuthorizationURL = initResp.AuthorizationURL
	run.attempt.State = models.AttemptStateAwaitingCheckout
	run.attempt.UpdatedAt = time.Now().UTC()
	s.byRef[initResp.Reference] = run
	snapshot := run.attempt
	s.mu.Unlock()

	s.audit(func(ctx context.Context) error {
		record := snapshot
		return s.auditor.Create(ctx, &record)
	})

	s.wg.Add(1)
	go s.poll(run)

	s.logger.Info("checkout started",
		zap.String("session_id", sessionID),
		zap.String("reference", snapshot.Reference),
		zap.Int64("amount", total),
	)
	return &snapshot, nil
}

// poll drives the fixed-interval confirmation loop for one attempt.
func (s *PaymentService) poll(run *attemptRun) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-run.ctx.Done():
			return
		case <-ticker.C:
			if s.tick(run) {
				return
			}
		}
	}
}

// tick performs one verification round. Returns true when the attempt has
// reached a terminal state and polling must stop.
func (s *PaymentService) tick(run *attemptRun) bool {
	s.mu.Lock()
	if run.attempt.State.Terminal() {
		s.mu.Unlock()
		return true
	}
	if run.attempt.State == models.AttemptStateAwaitingCheckout {
		run.attempt.State = models.AttemptStatePolling
		run.attempt.UpdatedAt = time.Now().UTC()
	}
	reference := run.attempt.Reference
	s.mu.Unlock()

	verifyCtx, cancel := context.WithTimeout(run.ctx, s.interval*4)
	status, err := s.gateway.VerifyPayment(verifyCtx, reference)
	cancel()
	if s.metrics != nil {
		s.metrics.ObserveVerifyCall(err)
	}

	s.mu.Lock()
	// A response that arrives after cancellation or after a newer attempt
	// replaced this run must not touch state.
	if run.attempt.State.Terminal() || run.ctx.Err() != nil {
		s.mu.Unlock()
		return true
	}

	if err == nil && paymentSettled(status) {
		// Settlement wins even on the final allowed check: the status is
		// evaluated before the attempt counter.
		s.completeLocked(run)
		s.mu.Unlock()
		return true
	}

	if err != nil {
		// Transient verification failures are swallowed. The tick still
		// consumes one attempt so a dead processor cannot poll forever.
		s.logger.Debug("verify failed, will retry", zap.String("reference", reference), zap.Error(err))
	}

	run.attempt.AttemptsMade++
	run.attempt.UpdatedAt = time.Now().UTC()
	if run.attempt.AttemptsMade >= s.maxPolls {
		run.attempt.State = models.AttemptStateTimedOut
		run.attempt.Message = "payment not confirmed in time, check your payment history before retrying"
		run.cancel()
		snapshot := run.attempt
		s.mu.Unlock()
		s.finishAttempt(snapshot)
		return true
	}
	s.mu.Unlock()
	return false
}

// completeLocked marks the attempt settled and finalizes the enrollment
// exactly once. Caller holds s.mu.
func (s *PaymentService) completeLocked(run *attemptRun) {
	run.attempt.AttemptsMade++
	run.attempt.State = models.AttemptStateCompleted
	run.attempt.Message = "payment confirmed"
	run.attempt.UpdatedAt = time.Now().UTC()
	run.cancel()

	alreadyFinalized := run.finalized
	run.finalized = true
	snapshot := run.attempt
	draft := run.draft
	items := run.items

	go func() {
		s.finishAttempt(snapshot)
		if alreadyFinalized {
			return
		}
		err := s.enrolls.Finalize(s.baseCtx, FinalizeRequest{
			SessionID: snapshot.SessionID,
			Draft:     draft,
			Items:     items,
			Total:     snapshot.Amount,
			Reference: snapshot.Reference,
		})
		if err != nil {
			s.logger.Error("enrollment finalization failed",
				zap.String("reference", snapshot.Reference),
				zap.Error(err),
			)
			s.mu.Lock()
			run.attempt.Message = "payment confirmed, but the enrollment record could not be saved"
			s.mu.Unlock()
		}
	}()
}

// Cancel ends a live attempt. A blocked checkout window fails the attempt
// outright; an explicit abandon or a closed window cancels it.
func (s *PaymentService) Cancel(ctx context.Context, sessionID string, reason models.CancelReason) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	run, ok := s.runs[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.ErrAttemptNotFound
	}
	if run.attempt.State.Terminal() {
		snapshot := run.attempt
		s.mu.Unlock()
		return &snapshot, nil
	}

	switch reason {
	case models.CancelReasonWindowBlocked:
		run.attempt.State = models.AttemptStateFailed
		run.attempt.Message = "the checkout window was blocked, allow popups and try again"
	case models.CancelReasonWindowClosed:
		run.attempt.State = models.AttemptStateCancelled
		run.attempt.Message = "the checkout window was closed before payment completed"
	default:
		run.attempt.State = models.AttemptStateCancelled
		run.attempt.Message = "checkout cancelled"
	}
	run.attempt.UpdatedAt = time.Now().UTC()
	run.cancel()
	snapshot := run.attempt
	s.mu.Unlock()

	s.finishAttempt(snapshot)
	s.logger.Info("checkout attempt ended",
		zap.String("session_id", sessionID),
		zap.String("reference", snapshot.Reference),
		zap.String("state", string(snapshot.State)),
		zap.String("reason", string(reason)),
	)
	return &snapshot, nil
}

// Snapshot returns the live attempt for a session.
func (s *PaymentService) Snapshot(ctx context.Context, sessionID string) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[sessionID]
	if !ok {
		return nil, appErrors.ErrAttemptNotFound
	}
	snapshot := run.attempt
	return &snapshot, nil
}

// ByReference returns the live attempt for a payment reference.
func (s *PaymentService) ByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.byRef[reference]
	if !ok {
		return nil, appErrors.ErrAttemptNotFound
	}
	snapshot := run.attempt
	return &snapshot, nil
}

// Stop cancels every live attempt and waits for their pollers to exit.
func (s *PaymentService) Stop() {
	s.baseStop()
	s.mu.Lock()
	for _, run := range s.runs {
		run.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// finishAttempt records the terminal state and reports metrics.
func (s *PaymentService) finishAttempt(snapshot models.PaymentAttempt) {
	if s.metrics != nil {
		s.metrics.ObserveCheckoutOutcome(snapshot.State, snapshot.AttemptsMade)
	}
	s.audit(func(ctx context.Context) error {
		return s.auditor.UpdateState(ctx, snapshot.Reference, snapshot.State, snapshot.AttemptsMade, snapshot.Message, snapshot.UpdatedAt)
	})
}

// transition moves a run to a terminal state before a reference exists, so
// there is nothing to audit yet.
func (s *PaymentService) transition(run *attemptRun, state models.AttemptState, message string) {
	s.mu.Lock()
	run.attempt.State = state
	run.attempt.Message = message
	run.attempt.UpdatedAt = time.Now().UTC()
	run.cancel()
	snapshot := run.attempt
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ObserveCheckoutOutcome(snapshot.State, snapshot.AttemptsMade)
	}
}

func (s *PaymentService) audit(fn func(context.Context) error) {
	if s.auditor == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("attempt audit write failed", zap.Error(err))
		}
	}()
}

// paymentSettled interprets the processor status vocabulary.
func paymentSettled(status string) bool {
	switch strings.ToLower(status) {
	case "completed", "success", "successful", "paid":
		return true
	}
	return false
}

func validationError(fieldErrs DraftFieldErrors) *appErrors.Error {
	err := appErrors.Clone(appErrors.ErrValidation, "please correct the highlighted fields")
	// Field messages ride along for the handler to render.
	err.Err = &fieldErrorDetail{fields: fieldErrs}
	return err
}

// fieldErrorDetail wraps per-field messages as an error so they survive the
// trip through the typed error envelope.
type fieldErrorDetail struct {
	fields DraftFieldErrors
}

func (d *fieldErrorDetail) Error() string {
	parts := make([]string, 0, len(d.fields))
	for field, msg := range d.fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// FieldErrors extracts per-field validation messages from an error chain,
// or nil when the error carries none.
func FieldErrors(err error) DraftFieldErrors {
	var detail *fieldErrorDetail
	if errors.As(err, &detail) {
		return detail.fields
	}
	return nil
}
