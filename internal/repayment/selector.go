// Package repayment loads a loan's payment plan, keeps the operator's
// installment selection and turns it into a payment log request.
package repayment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/money"
	"loan-console/internal/models"
)

// State is where the selector is in its load cycle.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "empty"
}

const (
	customerNotFound  = "Customer Not Found"
	customerIDMissing = "Customer ID Missing for Loan"
	emptyPlanMessage  = "No payment plan found for this loan."
	initialMessage    = "Enter Loan ID to load payment plan."
)

// PlanSource is the part of the backend the selector reads.
type PlanSource interface {
	GetLoan(ctx context.Context, loanID string) (*models.Loan, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	PaymentPlan(ctx context.Context, loanID string) ([]models.Installment, error)
}

// Selection is the chosen installment. Amount is always the installment's
// amount due; it is never entered separately.
type Selection struct {
	InstallmentID string
	Amount        money.Amount
}

// Snapshot is a read-only copy of the selector for rendering.
type Snapshot struct {
	State        State
	Loan         models.Loan
	CustomerName string
	Installments []models.Installment
	Selection    *Selection
	// Message explains an empty or failed plan.
	Message string
}

// Selector holds the plan of one loan at a time.
type Selector struct {
	mu        sync.Mutex
	source    PlanSource
	log       logger.Logger
	preselect bool

	state        State
	generation   string
	loan         models.Loan
	customerName string
	plan         []models.Installment
	selection    *Selection
	message      string
}

// Option configures a Selector.
type Option func(*Selector)

// WithPreselect selects the earliest unpaid installment once a plan loads.
func WithPreselect(on bool) Option {
	return func(s *Selector) { s.preselect = on }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Selector) { s.log = log }
}

func NewSelector(source PlanSource, opts ...Option) *Selector {
	s := &Selector{source: source, log: logger.NewNoOpLogger(), message: initialMessage}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("repayment")
	return s
}

// LoadPlan fetches the loan, its customer's name and its payment plan.
// Loading again or calling Reset while a load is running makes the running
// load's result stale: it is discarded and STALE_RESPONSE is returned.
func (s *Selector) LoadPlan(ctx context.Context, loanID string) error {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return errors.NewValidationError("loanId", "Loan ID is required.")
	}

	s.mu.Lock()
	gen := uuid.NewString()
	s.generation = gen
	s.state = StateLoading
	s.loan = models.Loan{}
	s.customerName = ""
	s.plan = nil
	s.selection = nil
	s.message = "Loading payment plan..."
	s.mu.Unlock()

	loan, name, plan, err := s.fetch(ctx, loanID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.log.Debug("discarding superseded plan response", map[string]interface{}{"loan_id": loanID})
		return errors.NewStaleResponseError("payment plan for loan " + loanID)
	}
	if err != nil {
		se := errors.Normalize(err)
		s.state = StateFailed
		s.selection = nil
		s.message = "Error loading payment plan: " + se.UserMessage()
		s.log.Warn("payment plan load failed", map[string]interface{}{
			"loan_id": loanID,
			"code":    se.Code,
		})
		return se
	}

	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].DueDate.Before(plan[j].DueDate.Time)
	})
	s.state = StateLoaded
	s.loan = *loan
	s.customerName = name
	s.plan = plan
	s.message = ""
	if len(plan) == 0 {
		s.message = emptyPlanMessage
	}
	if s.preselect {
		for _, inst := range plan {
			if !inst.IsPaid {
				s.selection = &Selection{InstallmentID: inst.ID, Amount: inst.AmountDue}
				break
			}
		}
	}
	return nil
}

func (s *Selector) fetch(ctx context.Context, loanID string) (*models.Loan, string, []models.Installment, error) {
	loan, err := s.source.GetLoan(ctx, loanID)
	if err != nil {
		return nil, "", nil, err
	}
	if loan == nil || loan.ID == "" {
		return nil, "", nil, errors.NewNotFoundError("loan", loanID)
	}

	name := customerIDMissing
	if loan.CustomerID != "" {
		name = customerNotFound
		// The customer name is decoration; a failure here does not fail the load.
		if c, err := s.source.GetCustomer(ctx, loan.CustomerID); err == nil && c != nil && c.FullName != "" {
			name = c.FullName
		} else if errors.Is(err, errors.ErrCodeUnauthorized) {
			return nil, "", nil, err
		}
	}

	plan, err := s.source.PaymentPlan(ctx, loan.ID)
	if err != nil {
		return nil, "", nil, err
	}
	return loan, name, plan, nil
}

// Select makes installmentID the selection, replacing any previous one.
func (s *Selector) Select(installmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoaded {
		return errors.NewValidationError("repaymentId", "Load a payment plan before selecting an installment.")
	}
	for _, inst := range s.plan {
		if inst.ID != installmentID {
			continue
		}
		if inst.IsPaid {
			return errors.NewValidationError("repaymentId", fmt.Sprintf("Installment due %s is already paid.", inst.DueDate.Display()))
		}
		s.selection = &Selection{InstallmentID: inst.ID, Amount: inst.AmountDue}
		return nil
	}
	return errors.NewValidationError("repaymentId", fmt.Sprintf("Installment %q is not part of this plan.", installmentID))
}

// Reset clears the plan and selection and invalidates any running load.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation = uuid.NewString()
	s.state = StateEmpty
	s.loan = models.Loan{}
	s.customerName = ""
	s.plan = nil
	s.selection = nil
	s.message = initialMessage
}

// Payment builds the payment log request for the current selection. The
// currency comes from the loan when the backend reports one.
func (s *Selector) Payment(defaultCurrency string) (models.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateLoading:
		return models.PaymentRequest{}, errors.NewRequestInFlightError("payment plan")
	case StateLoaded:
	default:
		return models.PaymentRequest{}, errors.NewValidationError("loanId",
			"Cannot log payment: Loan details are missing. Please ensure a valid Loan ID is entered and loan details are loaded.")
	}
	if s.selection == nil {
		return models.PaymentRequest{}, errors.NewValidationError("repaymentId",
			"Please select a payment installment from the plan to log this payment against.")
	}

	currency := s.loan.CurrencyCode
	if currency == "" {
		currency = defaultCurrency
	}
	return models.PaymentRequest{
		LoanID:       s.loan.ID,
		Amount:       s.selection.Amount,
		CurrencyCode: currency,
		RepaymentID:  s.selection.InstallmentID,
	}, nil
}

// Generation identifies the most recent load or reset.
func (s *Selector) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Snapshot returns a copy of the current state.
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:        s.state,
		Loan:         s.loan,
		CustomerName: s.customerName,
		Installments: append([]models.Installment(nil), s.plan...),
		Message:      s.message,
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
	}
	return snap
}
