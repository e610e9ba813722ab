package console

import (
	"context"
	"fmt"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/render"
	"loan-console/internal/review"
)

// Confirm asks the operator a yes/no question.
type Confirm func(prompt string) bool

// ReviewScreen lists pending payments and loans and applies approver
// decisions to them.
type ReviewScreen struct {
	service *review.Service
	confirm Confirm
	out     *Output
	log     logger.Logger
}

func NewReviewScreen(backend Backend, pageSize int, confirm Confirm, out *Output, log logger.Logger) *ReviewScreen {
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	log = log.WithFields(map[string]interface{}{"screen": "review"})
	return &ReviewScreen{
		service: review.NewService(backend, pageSize, log),
		confirm: confirm,
		out:     out,
		log:     log,
	}
}

// PendingPayments shows one page of payments awaiting review.
func (s *ReviewScreen) PendingPayments(ctx context.Context, page int) error {
	p, err := s.service.PendingPayments(ctx, page)
	if err != nil {
		report(s.out, s.log, "Error fetching pending payments", err)
		return err
	}
	s.out.Show(render.PaymentLogs(p, page, s.service.PageSize()))
	return nil
}

// PendingLoans shows one page of loans awaiting approval.
func (s *ReviewScreen) PendingLoans(ctx context.Context, page int) error {
	p, err := s.service.PendingLoans(ctx, page)
	if err != nil {
		report(s.out, s.log, "Error fetching approve loans", err)
		return err
	}
	s.out.Show(render.Loans(p, page, s.service.PageSize()))
	return nil
}

type transition struct {
	action review.Action
	run    func(*review.Service, context.Context, string) (review.Outcome, error)
}

var transitions = map[string]transition{
	"payment:approve": {review.ApprovePayment, (*review.Service).ApprovePayment},
	"payment:decline": {review.DeclinePayment, (*review.Service).DeclinePayment},
	"loan:approve":    {review.ApproveLoan, (*review.Service).ApproveLoan},
	"loan:decline":    {review.DeclineLoan, (*review.Service).DeclineLoan},
	"loan:default":    {review.DefaultLoan, (*review.Service).DefaultLoan},
}

// Decide applies verb ("approve", "decline", "default") to a payment log or
// loan after the operator confirms. A declined confirmation is not an error.
func (s *ReviewScreen) Decide(ctx context.Context, kind, verb, id string) (bool, error) {
	t, ok := transitions[kind+":"+verb]
	if !ok {
		err := errors.NewValidationError("action", fmt.Sprintf("%s cannot be applied to a %s", verb, kind))
		report(s.out, s.log, "", err)
		return false, err
	}
	if !s.confirm(t.action.Prompt(id)) {
		return false, nil
	}

	out, err := t.run(s.service, ctx, id)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeUnauthorized) && !errors.Is(err, errors.ErrCodeValidationFailed) && !errors.Is(err, errors.ErrCodeRequestInFlight) {
			s.log.Error("review decision failed", map[string]interface{}{"id": id, "action": t.action.Name, "code": errors.CodeOf(err)})
			s.out.Notify(render.LevelError, review.FailureText(t.action, err))
			return false, err
		}
		report(s.out, s.log, "", err)
		return false, err
	}
	s.out.Notify(render.LevelSuccess, out.Message)
	return true, nil
}
