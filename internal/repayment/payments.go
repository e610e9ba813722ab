package repayment

import (
	"context"
	"strings"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/flight"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/money"
	"loan-console/internal/gateway"
	"loan-console/internal/models"
)

const paymentLoggedMessage = "Payment log created successfully!"

// PaymentLogger is the part of the backend that records payments.
type PaymentLogger interface {
	LogPayment(ctx context.Context, req models.PaymentRequest) (*gateway.Envelope, error)
}

// Receipt is what the operator sees after a payment is logged.
type Receipt struct {
	Request models.PaymentRequest
	Message string
}

// Service submits payments for the selector's current selection.
type Service struct {
	selector *Selector
	backend  PaymentLogger
	guard    *flight.Guard
	currency string
	log      logger.Logger
}

func NewService(selector *Selector, backend PaymentLogger, currency string, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		selector: selector,
		backend:  backend,
		guard:    flight.NewGuard("payment"),
		currency: strings.ToUpper(currency),
		log:      log.Named("payments"),
	}
}

// Submit logs a payment against the selected installment. Nothing is sent
// without a selection, and a second Submit while one is running fails with
// REQUEST_IN_FLIGHT. The selector is reset after a successful submit unless
// another plan was loaded meanwhile.
func (s *Service) Submit(ctx context.Context) (Receipt, error) {
	req, err := s.selector.Payment(s.currency)
	if err != nil {
		return Receipt{}, err
	}
	return s.send(ctx, req)
}

// SubmitManual logs an operator-typed amount against the loaded loan.
//
// Deprecated: amounts must come from the selected installment; use Submit.
func (s *Service) SubmitManual(ctx context.Context, amount string) (Receipt, error) {
	a, err := money.Parse(amount)
	if err != nil || !a.IsPositive() {
		return Receipt{}, errors.NewValidationError("amount", "Please enter a valid positive amount for payment.")
	}
	req, err := s.selector.Payment(s.currency)
	if err != nil {
		return Receipt{}, err
	}
	s.log.Warn("manual payment amount used", map[string]interface{}{
		"loan_id":      req.LoanID,
		"installment":  req.Amount.String(),
		"entered":      a.String(),
		"repayment_id": req.RepaymentID,
	})
	req.Amount = a
	return s.send(ctx, req)
}

func (s *Service) send(ctx context.Context, req models.PaymentRequest) (Receipt, error) {
	gen := s.selector.Generation()
	var receipt Receipt
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		env, err := s.backend.LogPayment(ctx, req)
		if err != nil {
			return err
		}
		msg := paymentLoggedMessage
		if env != nil && strings.TrimSpace(env.Message) != "" {
			msg = env.Message
		}
		receipt = Receipt{Request: req, Message: msg}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errors.ErrCodeRequestInFlight) {
			s.log.Error("payment log failed", map[string]interface{}{
				"loan_id": req.LoanID,
				"error":   err,
			})
		}
		return Receipt{}, err
	}

	s.log.Info("payment logged", map[string]interface{}{
		"loan_id":      req.LoanID,
		"repayment_id": req.RepaymentID,
		"amount":       req.Amount.String(),
	})
	// A plan loaded while the payment was in flight belongs to the operator's
	// next task and is kept.
	if s.selector.Generation() == gen {
		s.selector.Reset()
	}
	return receipt, nil
}

// Busy reports whether a submit is in flight.
func (s *Service) Busy() bool {
	return s.guard.Busy()
}
