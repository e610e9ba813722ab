// Package review lists items waiting for an approver and moves them through
// their approve, decline and default transitions.
package review

import (
	"context"
	"fmt"
	"strings"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/flight"
	"loan-console/internal/common/logger"
	"loan-console/internal/gateway"
	"loan-console/internal/models"
)

// Backend is the part of the gateway the review screens use.
type Backend interface {
	ListPaymentLogs(ctx context.Context, page, pageSize int, status string) (models.Page[models.PaymentLog], error)
	TransitionPayment(ctx context.Context, paymentLogID string, action gateway.PaymentAction) (*gateway.Envelope, error)
	ListLoans(ctx context.Context, page, pageSize int, status string) (models.Page[models.Loan], error)
	TransitionLoan(ctx context.Context, loanID string, action gateway.LoanAction) (*gateway.Envelope, error)
}

// Action describes one transition as the operator sees it.
type Action struct {
	Name    string
	Confirm string
	Success string
	Failure string
}

var (
	ApprovePayment = Action{"approve payment", "Are you sure you want to accept this payment?", "Payment accepted and system updated.", "Failed to accept payment"}
	DeclinePayment = Action{"decline payment", "Are you sure you want to decline this payment?", "Payment declined.", "Failed to decline payment"}
	ApproveLoan    = Action{"approve loan", "Are you sure you want to APPROVE Loan ID: %s?", "Loan approved successfully!", "Failed to approve loan"}
	DeclineLoan    = Action{"decline loan", "Are you sure you want to DECLINE Loan ID: %s?", "Loan declined successfully!", "Failed to decline loan"}
	DefaultLoan    = Action{"default loan", "Are you sure you want to mark Loan ID: %s as DEFAULTED? This action cannot be undone.", "Loan successfully marked as defaulted!", "Failed to mark loan as defaulted"}
)

// Prompt returns the confirmation question for id.
func (a Action) Prompt(id string) string {
	if strings.Contains(a.Confirm, "%s") {
		return fmt.Sprintf(a.Confirm, id)
	}
	return a.Confirm
}

// Outcome is the result of a successful transition.
type Outcome struct {
	ID      string
	Action  Action
	Message string
}

type Service struct {
	backend  Backend
	pageSize int
	guard    *flight.Guard
	log      logger.Logger
}

func NewService(backend Backend, pageSize int, log logger.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		backend:  backend,
		pageSize: pageSize,
		guard:    flight.NewGuard("review"),
		log:      log.Named("review"),
	}
}

// PageSize is the number of rows per listing page.
func (s *Service) PageSize() int { return s.pageSize }

// PendingPayments lists payment logs awaiting review.
func (s *Service) PendingPayments(ctx context.Context, page int) (models.Page[models.PaymentLog], error) {
	return s.backend.ListPaymentLogs(ctx, clampPage(page), s.pageSize, models.PaymentStatusPendingReview)
}

// PendingLoans lists loans awaiting approval.
func (s *Service) PendingLoans(ctx context.Context, page int) (models.Page[models.Loan], error) {
	return s.backend.ListLoans(ctx, clampPage(page), s.pageSize, models.LoanStatusPendingApproval)
}

func (s *Service) ApprovePayment(ctx context.Context, id string) (Outcome, error) {
	return s.payment(ctx, id, gateway.PaymentApprove, ApprovePayment)
}

func (s *Service) DeclinePayment(ctx context.Context, id string) (Outcome, error) {
	return s.payment(ctx, id, gateway.PaymentDecline, DeclinePayment)
}

func (s *Service) ApproveLoan(ctx context.Context, id string) (Outcome, error) {
	return s.loan(ctx, id, gateway.LoanApprove, ApproveLoan)
}

func (s *Service) DeclineLoan(ctx context.Context, id string) (Outcome, error) {
	return s.loan(ctx, id, gateway.LoanDecline, DeclineLoan)
}

func (s *Service) DefaultLoan(ctx context.Context, id string) (Outcome, error) {
	return s.loan(ctx, id, gateway.LoanDefaulted, DefaultLoan)
}

func (s *Service) payment(ctx context.Context, id string, pa gateway.PaymentAction, action Action) (Outcome, error) {
	return s.transition(ctx, id, action, func(ctx context.Context) (*gateway.Envelope, error) {
		return s.backend.TransitionPayment(ctx, id, pa)
	})
}

func (s *Service) loan(ctx context.Context, id string, la gateway.LoanAction, action Action) (Outcome, error) {
	return s.transition(ctx, id, action, func(ctx context.Context) (*gateway.Envelope, error) {
		return s.backend.TransitionLoan(ctx, id, la)
	})
}

func (s *Service) transition(ctx context.Context, id string, action Action, call func(context.Context) (*gateway.Envelope, error)) (Outcome, error) {
	id = strings.TrimSpace(id)
	out := Outcome{ID: id, Action: action, Message: action.Success}

	err := s.guard.Do(ctx, func(ctx context.Context) error {
		env, err := call(ctx)
		if err != nil {
			return err
		}
		if env != nil && strings.TrimSpace(env.Message) != "" {
			out.Message = env.Message
		}
		return nil
	})
	if err != nil {
		se := errors.Normalize(err)
		if se.Code != errors.ErrCodeValidationFailed && se.Code != errors.ErrCodeRequestInFlight {
			s.log.Error(action.Failure, map[string]interface{}{"id": id, "code": se.Code, "error": se.Details})
		}
		return Outcome{}, err
	}

	s.log.Info(action.Name, map[string]interface{}{"id": id})
	return out, nil
}

// FailureText is the operator-facing line for a failed transition.
func FailureText(action Action, err error) string {
	return fmt.Sprintf("%s: %s", action.Failure, errors.Normalize(err).UserMessage())
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
