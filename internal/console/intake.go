package console

import (
	"context"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/flight"
	"loan-console/internal/common/logger"
	"loan-console/internal/intake"
	"loan-console/internal/render"
	"loan-console/internal/wizard"
)

const customerCreatedMessage = "Customer created successfully!"

// IntakeScreen is the new-customer wizard.
type IntakeScreen struct {
	wizard    *wizard.Wizard
	assembler *intake.Assembler
	backend   Backend
	guard     *flight.Guard
	out       *Output
	log       logger.Logger
}

func NewIntakeScreen(backend Backend, assembler *intake.Assembler, out *Output, log logger.Logger) *IntakeScreen {
	return &IntakeScreen{
		wizard:    wizard.MustNew(wizard.CustomerIntake()),
		assembler: assembler,
		backend:   backend,
		guard:     flight.NewGuard(wizard.FormCustomerIntake),
		out:       out,
		log:       log.WithFields(map[string]interface{}{"screen": wizard.FormCustomerIntake}),
	}
}

// Wizard exposes the form state for input.
func (s *IntakeScreen) Wizard() *wizard.Wizard { return s.wizard }

// Render draws the visible step.
func (s *IntakeScreen) Render() string {
	return render.Wizard(s.wizard.View())
}

// Next advances the wizard, showing the first invalid field if it cannot.
func (s *IntakeScreen) Next() bool {
	if err := s.wizard.Advance(); err != nil {
		report(s.out, s.log, "", err)
		return false
	}
	return true
}

func (s *IntakeScreen) Back() { s.wizard.Retreat() }

// Cancel abandons the form. A submission still in flight for it will be
// discarded when its response arrives.
func (s *IntakeScreen) Cancel() { s.wizard.Reset() }

// Submit creates the customer together with the loan preference and returns
// the new customer's ID.
func (s *IntakeScreen) Submit(ctx context.Context) (string, error) {
	id, err := s.submit(ctx)
	if err != nil {
		report(s.out, s.log, "Failed to create customer", err)
		return "", err
	}
	return id, nil
}

func (s *IntakeScreen) submit(ctx context.Context) (string, error) {
	if !s.wizard.CanSubmit() {
		return "", errors.NewValidationError(wizard.KeyLoanType, "Please complete the loan details step before submitting.")
	}
	if err := s.wizard.ValidateCurrent(); err != nil {
		return "", err
	}

	session := s.wizard.Session()
	payload, err := s.assembler.BuildCustomerPayload(s.wizard.Values(), s.wizard.Branch())
	if err != nil {
		return "", err
	}

	var id string
	err = s.guard.Do(ctx, func(ctx context.Context) error {
		env, err := s.backend.CreateCustomer(ctx, payload)
		if err != nil {
			return err
		}
		if s.wizard.Session() != session {
			return errors.NewStaleResponseError("customer intake")
		}
		id = createdID(env)
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("customer created", map[string]interface{}{
		"customer_id": id,
		"loan_group":  payload.LoanPreference.LoanGroup,
	})
	s.out.Notify(render.LevelSuccess, customerCreatedMessage)
	s.wizard.Reset()
	return id, nil
}
