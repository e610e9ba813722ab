package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/gateway"
	"loan-console/internal/models"
)

type call struct {
	id     string
	action string
}

type fakeBackend struct {
	calls      []call
	env        *gateway.Envelope
	err        error
	gate       chan struct{}
	listStatus string
	listPage   int
	listSize   int
}

func (f *fakeBackend) ListPaymentLogs(ctx context.Context, page, size int, status string) (models.Page[models.PaymentLog], error) {
	f.listPage, f.listSize, f.listStatus = page, size, status
	return models.Page[models.PaymentLog]{Items: []models.PaymentLog{{PaymentLogID: "P1"}}, TotalCount: 1}, nil
}

func (f *fakeBackend) ListLoans(ctx context.Context, page, size int, status string) (models.Page[models.Loan], error) {
	f.listPage, f.listSize, f.listStatus = page, size, status
	return models.Page[models.Loan]{Items: []models.Loan{{ID: "L1"}}, TotalCount: 1}, nil
}

func (f *fakeBackend) TransitionPayment(ctx context.Context, id string, a gateway.PaymentAction) (*gateway.Envelope, error) {
	return f.record(id, string(a))
}

func (f *fakeBackend) TransitionLoan(ctx context.Context, id string, a gateway.LoanAction) (*gateway.Envelope, error) {
	return f.record(id, string(a))
}

func (f *fakeBackend) record(id, action string) (*gateway.Envelope, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.calls = append(f.calls, call{id, action})
	if f.env == nil {
		return &gateway.Envelope{IsSuccessful: true}, f.err
	}
	return f.env, f.err
}

func TestPendingListsUseReviewStatus(t *testing.T) {
	b := &fakeBackend{}
	s := NewService(b, 0, logger.NewTestLogger(t))

	_, err := s.PendingPayments(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, b.listPage)
	assert.Equal(t, 10, b.listSize)
	assert.Equal(t, models.PaymentStatusPendingReview, b.listStatus)

	_, err = s.PendingLoans(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, b.listPage)
	assert.Equal(t, models.LoanStatusPendingApproval, b.listStatus)
}

func TestTransitions(t *testing.T) {
	b := &fakeBackend{}
	s := NewService(b, 5, logger.NewTestLogger(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		run    func() (Outcome, error)
		action string
		want   string
	}{
		{"approve payment", func() (Outcome, error) { return s.ApprovePayment(ctx, "P1") }, "approve", "Payment accepted and system updated."},
		{"decline payment", func() (Outcome, error) { return s.DeclinePayment(ctx, "P1") }, "decline", "Payment declined."},
		{"approve loan", func() (Outcome, error) { return s.ApproveLoan(ctx, "L1") }, "approve", "Loan approved successfully!"},
		{"decline loan", func() (Outcome, error) { return s.DeclineLoan(ctx, "L1") }, "decline", "Loan declined successfully!"},
		{"default loan", func() (Outcome, error) { return s.DefaultLoan(ctx, "L1") }, "defaulted", "Loan successfully marked as defaulted!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Message)
			assert.Equal(t, tt.action, b.calls[len(b.calls)-1].action)
		})
	}
}

func TestTransition_BackendMessageWins(t *testing.T) {
	b := &fakeBackend{env: &gateway.Envelope{IsSuccessful: true, Message: "Loan L1 approved by ops"}}
	out, err := NewService(b, 5, nil).ApproveLoan(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, "Loan L1 approved by ops", out.Message)
}

func TestTransition_FailureText(t *testing.T) {
	b := &fakeBackend{err: errors.NewApplicationError(409, "Loan already approved")}
	_, err := NewService(b, 5, nil).ApproveLoan(context.Background(), "L1")
	require.Error(t, err)
	assert.Equal(t, "Failed to approve loan: Loan already approved", FailureText(ApproveLoan, err))
}

func TestTransition_SecondConcurrentCallRejected(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	s := NewService(b, 5, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.ApprovePayment(context.Background(), "P1")
		done <- err
	}()
	require.Eventually(t, s.guard.Busy, time.Second, time.Millisecond)

	_, err := s.DeclinePayment(context.Background(), "P1")
	assert.True(t, errors.Is(err, errors.ErrCodeRequestInFlight))

	close(b.gate)
	assert.NoError(t, <-done)
	assert.Len(t, b.calls, 1)
}

func TestActionPrompt(t *testing.T) {
	assert.Equal(t, "Are you sure you want to APPROVE Loan ID: L9?", ApproveLoan.Prompt("L9"))
	assert.Equal(t, "Are you sure you want to accept this payment?", ApprovePayment.Prompt("P1"))
}
