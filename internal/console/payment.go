package console

import (
	"context"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/render"
	"loan-console/internal/repayment"
)

// PaymentScreen logs a payment against one installment of a loan's plan.
type PaymentScreen struct {
	selector *repayment.Selector
	payments *repayment.Service
	out      *Output
	log      logger.Logger
}

func NewPaymentScreen(backend Backend, currency string, preselect bool, out *Output, log logger.Logger) *PaymentScreen {
	log = log.WithFields(map[string]interface{}{"screen": "payment"})
	selector := repayment.NewSelector(backend, repayment.WithPreselect(preselect), repayment.WithLogger(log))
	return &PaymentScreen{
		selector: selector,
		payments: repayment.NewService(selector, backend, currency, log),
		out:      out,
		log:      log,
	}
}

func (s *PaymentScreen) Selector() *repayment.Selector { return s.selector }

func (s *PaymentScreen) Render() string {
	return render.Plan(s.selector.Snapshot())
}

// Load fetches the plan for loanID. A failed load is shown in the plan
// itself rather than as a separate notice.
func (s *PaymentScreen) Load(ctx context.Context, loanID string) error {
	err := s.selector.LoadPlan(ctx, loanID)
	switch {
	case err == nil:
		if len(s.selector.Snapshot().Installments) > 0 {
			s.out.Notify(render.LevelSuccess, "Payment plan loaded successfully.")
		}
	case errors.Is(err, errors.ErrCodeValidationFailed), errors.Is(err, errors.ErrCodeUnauthorized), errors.Is(err, errors.ErrCodeStaleResponse):
		report(s.out, s.log, "", err)
	default:
		s.log.Warn("payment plan unavailable", map[string]interface{}{"loan_id": loanID, "code": errors.CodeOf(err)})
	}
	return err
}

// Select picks the installment to pay.
func (s *PaymentScreen) Select(installmentID string) error {
	if err := s.selector.Select(installmentID); err != nil {
		report(s.out, s.log, "", err)
		return err
	}
	return nil
}

// Submit logs the payment for the selected installment.
func (s *PaymentScreen) Submit(ctx context.Context) (repayment.Receipt, error) {
	receipt, err := s.payments.Submit(ctx)
	if err != nil {
		report(s.out, s.log, "Failed to create payment log", err)
		return repayment.Receipt{}, err
	}
	s.out.Notify(render.LevelSuccess, receipt.Message)
	return receipt, nil
}

// Reset clears the loaded plan.
func (s *PaymentScreen) Reset() { s.selector.Reset() }
