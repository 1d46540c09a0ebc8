package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/gateway"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	appErrors "github.com/Oludefiyinfoluwa06/smarti-website/pkg/errors"
)

type paymentGatewayStub struct {
	initErr     error
	verifyCalls int64
	verify      func(call int64) (string, error)
	verifyGate  chan struct{}
}

func (s *paymentGatewayStub) InitPayment(ctx context.Context, req gateway.InitPaymentRequest) (*gateway.InitPaymentResponse, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &gateway.InitPaymentResponse{
		AuthorizationURL: "https://checkout.example.com/abc",
		Reference:        "enroll_123",
	}, nil
}

func (s *paymentGatewayStub) VerifyPayment(ctx context.Context, reference string) (string, error) {
	call := atomic.AddInt64(&s.verifyCalls, 1)
	if s.verifyGate != nil {
		<-s.verifyGate
	}
	if s.verify != nil {
		return s.verify(call)
	}
	return "pending", nil
}

func (s *paymentGatewayStub) calls() int64 {
	return atomic.LoadInt64(&s.verifyCalls)
}

type finalizerStub struct {
	mu            sync.Mutex
	fieldErrs     DraftFieldErrors
	pricedErr     error
	finalizeErr   error
	finalizeCalls int
	lastFinalize  FinalizeRequest
}

func (s *finalizerStub) ValidateDraft(draft models.EnrollmentDraft) DraftFieldErrors {
	return s.fieldErrs
}

func (s *finalizerStub) PricedItems(ctx context.Context, draft models.EnrollmentDraft) ([]models.SelectedItem, int64, error) {
	if s.pricedErr != nil {
		return nil, 0, s.pricedErr
	}
	return []models.SelectedItem{{CourseID: "c1", CourseTitle: "Data Analytics", Quantity: 1}}, 15000, nil
}

func (s *finalizerStub) Finalize(ctx context.Context, req FinalizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizeCalls++
	s.lastFinalize = req
	return s.finalizeErr
}

func (s *finalizerStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeCalls
}

func (s *finalizerStub) last() FinalizeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFinalize
}

func validDraft() models.EnrollmentDraft {
	return models.EnrollmentDraft{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "+2348000000000",
		Quantities: map[string]int{"c1": 1},
	}
}

func newPollerUnderTest(t *testing.T, gw *paymentGatewayStub, fin *finalizerStub, maxPolls int) *PaymentService {
	t.Helper()
	svc := NewPaymentService(gw, fin, nil, nil, config.CheckoutConfig{
		PollInterval:    2 * time.Millisecond,
		MaxPollAttempts: maxPolls,
		Currency:        "NGN",
	}, nil)
	t.Cleanup(svc.Stop)
	return svc
}

func TestStartCheckoutRejectsInvalidDraft(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{fieldErrs: DraftFieldErrors{"email": "Email is required"}}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", models.EnrollmentDraft{})
	require.Error(t, err)
	assert.Equal(t, "Email is required", FieldErrors(err)["email"])
	assert.Zero(t, gw.calls())
}

func TestStartCheckoutFailsWhenInitFails(t *testing.T) {
	gw := &paymentGatewayStub{initErr: errors.New("processor down")}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentInit.Code, appErrors.FromError(err).Code)

	snapshot, err := svc.Snapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateFailed, snapshot.State)
}

func TestStartCheckoutSingleActiveAttemptPerSession(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	attempt, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)
	assert.Equal(t, "enroll_123", attempt.Reference)
	assert.Equal(t, models.AttemptStateAwaitingCheckout, attempt.State)

	_, err = svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.ErrorIs(t, err, appErrors.ErrAttemptActive)

	// Another session is unaffected.
	_, err = svc.StartCheckout(context.Background(), "sess-2", validDraft())
	require.NoError(t, err)
}

func TestCheckoutCompletesWhenPaymentSettles(t *testing.T) {
	gw := &paymentGatewayStub{verify: func(call int64) (string, error) {
		if call >= 3 {
			return "completed", nil
		}
		return "pending", nil
	}}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(context.Background(), "sess-1")
		return err == nil && snapshot.State == models.AttemptStateCompleted
	}, time.Second, time.Millisecond)

	snapshot, err := svc.Snapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.AttemptsMade)

	require.Eventually(t, func() bool { return fin.calls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "enroll_123", fin.last().Reference)
	assert.Equal(t, int64(15000), fin.last().Total)

	// Finalization happens exactly once, even after more time passes.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fin.calls())
}

func TestCheckoutTimesOutAfterAttemptBudget(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 5)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(context.Background(), "sess-1")
		return err == nil && snapshot.State == models.AttemptStateTimedOut
	}, time.Second, time.Millisecond)

	snapshot, err := svc.Snapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.AttemptsMade)

	// The poller must stop dead at the budget: no further verification
	// calls after the attempt times out.
	settled := gw.calls()
	assert.Equal(t, int64(5), settled)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, gw.calls())
	assert.Zero(t, fin.calls())
}

func TestCheckoutSettlesOnFinalAllowedCheck(t *testing.T) {
	gw := &paymentGatewayStub{verify: func(call int64) (string, error) {
		if call >= 3 {
			return "completed", nil
		}
		return "pending", nil
	}}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 3)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	// The status check runs before the attempt counter, so a settlement
	// observed on the last allowed check still completes the attempt.
	require.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(context.Background(), "sess-1")
		return err == nil && snapshot.State == models.AttemptStateCompleted
	}, time.Second, time.Millisecond)
}

func TestTransientVerifyErrorsAreSwallowed(t *testing.T) {
	gw := &paymentGatewayStub{verify: func(call int64) (string, error) {
		switch call {
		case 1, 2:
			return "", errors.New("upstream 502")
		default:
			return "completed", nil
		}
	}}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(context.Background(), "sess-1")
		return err == nil && snapshot.State == models.AttemptStateCompleted
	}, time.Second, time.Millisecond)

	snapshot, err := svc.Snapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.AttemptsMade)
	require.Eventually(t, func() bool { return fin.calls() == 1 }, time.Second, time.Millisecond)
}

func TestCancelWindowBlockedFailsAttempt(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	snapshot, err := svc.Cancel(context.Background(), "sess-1", models.CancelReasonWindowBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateFailed, snapshot.State)
}

func TestCancelWindowClosedCancelsAttempt(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	snapshot, err := svc.Cancel(context.Background(), "sess-1", models.CancelReasonWindowClosed)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateCancelled, snapshot.State)

	// Polling stops once cancelled. A tick already in flight may still
	// land, so let the loop drain before sampling.
	time.Sleep(10 * time.Millisecond)
	settled := gw.calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, gw.calls())
	assert.Zero(t, fin.calls())
}

func TestCancelAfterTerminalKeepsState(t *testing.T) {
	gw := &paymentGatewayStub{verify: func(call int64) (string, error) {
		return "completed", nil
	}}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(context.Background(), "sess-1")
		return err == nil && snapshot.State == models.AttemptStateCompleted
	}, time.Second, time.Millisecond)

	snapshot, err := svc.Cancel(context.Background(), "sess-1", models.CancelReasonUser)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateCompleted, snapshot.State)
}

func TestStaleVerifyResponseIgnoredAfterCancel(t *testing.T) {
	gate := make(chan struct{})
	gw := &paymentGatewayStub{
		verifyGate: gate,
		verify: func(call int64) (string, error) {
			return "completed", nil
		},
	}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	// Wait until a verification round-trip is in flight, then cancel while
	// the processor has not answered yet.
	require.Eventually(t, func() bool { return gw.calls() >= 1 }, time.Second, time.Millisecond)
	_, err = svc.Cancel(context.Background(), "sess-1", models.CancelReasonUser)
	require.NoError(t, err)

	// Release the in-flight response claiming settlement. It arrived after
	// cancellation, so it must not flip the attempt back to completed.
	close(gate)
	time.Sleep(20 * time.Millisecond)

	snapshot, err := svc.Snapshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateCancelled, snapshot.State)
	assert.Zero(t, fin.calls())
}

func TestNewAttemptAllowedAfterTerminalState(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "sess-1", models.CancelReasonUser)
	require.NoError(t, err)

	attempt, err := svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStateAwaitingCheckout, attempt.State)
}

func TestSnapshotAndByReference(t *testing.T) {
	gw := &paymentGatewayStub{}
	fin := &finalizerStub{}
	svc := newPollerUnderTest(t, gw, fin, 90)

	_, err := svc.Snapshot(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrAttemptNotFound)

	_, err = svc.StartCheckout(context.Background(), "sess-1", validDraft())
	require.NoError(t, err)

	byRef, err := svc.ByReference(context.Background(), "enroll_123")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byRef.SessionID)
}
