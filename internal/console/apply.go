package console

import (
	"context"
	"strings"
	"sync"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/flight"
	"loan-console/internal/common/logger"
	"loan-console/internal/intake"
	"loan-console/internal/render"
	"loan-console/internal/wizard"
)

const applicationSubmittedMessage = "Your application has been submitted for review."

// ApplyScreen is the standalone loan application for an existing customer.
type ApplyScreen struct {
	wizard    *wizard.Wizard
	assembler *intake.Assembler
	backend   Backend
	guard     *flight.Guard
	out       *Output
	log       logger.Logger

	mu           sync.Mutex
	customerName string
}

func NewApplyScreen(backend Backend, assembler *intake.Assembler, out *Output, log logger.Logger) *ApplyScreen {
	return &ApplyScreen{
		wizard:    wizard.MustNew(wizard.LoanApply()),
		assembler: assembler,
		backend:   backend,
		guard:     flight.NewGuard(wizard.FormLoanApply),
		out:       out,
		log:       log.WithFields(map[string]interface{}{"screen": wizard.FormLoanApply}),
	}
}

func (s *ApplyScreen) Wizard() *wizard.Wizard { return s.wizard }

func (s *ApplyScreen) Render() string {
	block := render.Wizard(s.wizard.View())
	if name := s.CustomerName(); name != "" {
		block = "Customer: " + name + "\n" + block
	}
	return block
}

// CustomerName is the looked-up name for the entered customer ID.
func (s *ApplyScreen) CustomerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerName
}

// LookupCustomer fills in the customer's name for the entered ID. A lookup
// that finishes after the ID changed or the form was reset is dropped.
func (s *ApplyScreen) LookupCustomer(ctx context.Context) error {
	id := strings.TrimSpace(s.wizard.Value("customerId"))
	session := s.wizard.Session()

	s.mu.Lock()
	s.customerName = ""
	s.mu.Unlock()
	if id == "" {
		return nil
	}

	name, err := customerName(ctx, s.backend, id)
	if err != nil {
		report(s.out, s.log, "Error fetching customer", err)
		return err
	}
	if s.wizard.Session() != session || strings.TrimSpace(s.wizard.Value("customerId")) != id {
		return errors.NewStaleResponseError("customer " + id)
	}

	s.mu.Lock()
	s.customerName = name
	s.mu.Unlock()
	return nil
}

func (s *ApplyScreen) Next() bool {
	if err := s.wizard.Advance(); err != nil {
		report(s.out, s.log, "", err)
		return false
	}
	return true
}

func (s *ApplyScreen) Back() { s.wizard.Retreat() }

func (s *ApplyScreen) Cancel() {
	s.wizard.Reset()
	s.mu.Lock()
	s.customerName = ""
	s.mu.Unlock()
}

// Submit posts the application and returns the backend's confirmation.
func (s *ApplyScreen) Submit(ctx context.Context) (string, error) {
	msg, err := s.submit(ctx)
	if err != nil {
		report(s.out, s.log, "Failed to submit application", err)
		return "", err
	}
	return msg, nil
}

func (s *ApplyScreen) submit(ctx context.Context) (string, error) {
	if !s.wizard.CanSubmit() {
		return "", errors.NewValidationError(wizard.KeyLoanType, "Please complete the loan details step before submitting.")
	}
	if err := s.wizard.ValidateCurrent(); err != nil {
		return "", err
	}

	session := s.wizard.Session()
	values := s.wizard.Values()
	app, err := s.assembler.BuildLoanApplication(values[wizard.KeyCustomerID], values, s.wizard.Branch())
	if err != nil {
		return "", err
	}

	msg := applicationSubmittedMessage
	err = s.guard.Do(ctx, func(ctx context.Context) error {
		env, err := s.backend.ApplyLoan(ctx, app)
		if err != nil {
			return err
		}
		if s.wizard.Session() != session {
			return errors.NewStaleResponseError("loan application")
		}
		if env != nil && strings.TrimSpace(env.Message) != "" {
			msg = env.Message
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("loan application submitted", map[string]interface{}{
		"customer_id":       app.CustomerID,
		"loan_group":        app.LoanPreference.LoanGroup,
		"duration_in_weeks": app.LoanPreference.DurationInWeeks,
	})
	s.out.Notify(render.LevelSuccess, msg)
	s.Cancel()
	return msg, nil
}
