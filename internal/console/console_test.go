package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/money"
	"loan-console/internal/gateway"
	"loan-console/internal/intake"
	"loan-console/internal/models"
)

type fakeBackend struct {
	mu sync.Mutex

	customer    *models.Customer
	customerErr error
	loan        *models.Loan
	plan        []models.Installment

	createGate chan struct{}
	created    []interface{}
	applied    []interface{}
	createEnv  *gateway.Envelope
	applyEnv   *gateway.Envelope
	payments   []models.PaymentRequest
	loanCalls  atomic.Int32
	loanAction gateway.LoanAction
	logs       models.Page[models.PaymentLog]
}

func (f *fakeBackend) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return f.customer, f.customerErr
}

func (f *fakeBackend) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	return f.loan, nil
}

func (f *fakeBackend) PaymentPlan(ctx context.Context, id string) ([]models.Installment, error) {
	return f.plan, nil
}

func (f *fakeBackend) LogPayment(ctx context.Context, req models.PaymentRequest) (*gateway.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, req)
	return &gateway.Envelope{IsSuccessful: true}, nil
}

func (f *fakeBackend) ListPaymentLogs(ctx context.Context, page, pageSize int, status string) (models.Page[models.PaymentLog], error) {
	return f.logs, nil
}

func (f *fakeBackend) TransitionPayment(ctx context.Context, id string, action gateway.PaymentAction) (*gateway.Envelope, error) {
	return &gateway.Envelope{IsSuccessful: true}, nil
}

func (f *fakeBackend) ListLoans(ctx context.Context, page, pageSize int, status string) (models.Page[models.Loan], error) {
	return models.Page[models.Loan]{}, nil
}

func (f *fakeBackend) TransitionLoan(ctx context.Context, id string, action gateway.LoanAction) (*gateway.Envelope, error) {
	f.loanCalls.Add(1)
	f.loanAction = action
	return &gateway.Envelope{IsSuccessful: true}, nil
}

func (f *fakeBackend) CreateCustomer(ctx context.Context, payload interface{}) (*gateway.Envelope, error) {
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	if f.createEnv != nil {
		return f.createEnv, nil
	}
	return &gateway.Envelope{IsSuccessful: true, ResponseObject: []byte(`{"id":"C-77"}`)}, nil
}

func (f *fakeBackend) ApplyLoan(ctx context.Context, payload interface{}) (*gateway.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, payload)
	if f.applyEnv != nil {
		return f.applyEnv, nil
	}
	return &gateway.Envelope{IsSuccessful: true}, nil
}

func newOutput() (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewOutput(&buf), &buf
}

func fillIntake(t *testing.T, s *IntakeScreen) {
	t.Helper()
	w := s.Wizard()
	steps := []map[string]string{
		{"fullName": "Ada Obi", "dob": "1990-04-12", "gender": "Female", "maritalStatus": "Single", "address": "12 Marina, Lagos"},
		{"email": "ada@example.com", "phone": "08031234567", "employment_status": "Employed", "income": "150000", "idType": "NIN", "idNumber": "A123", "bvn": "12345678901"},
		{"nextKinName": "Chidi Obi", "nextKinRelation": "Brother", "nextKinPhone": "08039876543", "guarantorIdType": "NIN", "guarantorIdNumber": "B456"},
		{"loanType": "Monthly"},
	}
	for _, values := range steps {
		for k, v := range values {
			require.NoError(t, w.Set(k, v))
		}
		require.True(t, s.Next())
	}
	require.NoError(t, w.Set("monthlyAmount", "50000"))
	require.NoError(t, w.Set("monthlyInterestRate", "5"))
	require.NoError(t, w.Set("monthlyDuration", "3"))
}

func TestIntakeSubmit_CreatesCustomerAndResets(t *testing.T) {
	backend := &fakeBackend{}
	out, buf := newOutput()
	log := logger.NewTestLogger(t)
	s := NewIntakeScreen(backend, intake.NewAssembler("NGN", log), out, log)
	fillIntake(t, s)

	id, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C-77", id)
	assert.Contains(t, buf.String(), "Customer created successfully!")

	require.Len(t, backend.created, 1)
	payload, ok := backend.created[0].(intake.CustomerPayload)
	require.True(t, ok)
	assert.Equal(t, models.LoanTypeMonthly, payload.LoanPreference.LoanGroup)
	assert.Equal(t, 12, payload.LoanPreference.DurationInWeeks)

	assert.Equal(t, 0, s.Wizard().Current())
	assert.Empty(t, s.Wizard().Value("fullName"))
}

func TestIntakeSubmit_BeforeLoanStepSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	out, buf := newOutput()
	log := logger.NewTestLogger(t)
	s := NewIntakeScreen(backend, intake.NewAssembler("NGN", log), out, log)

	_, err := s.Submit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeValidationFailed))
	assert.Empty(t, backend.created)
	assert.Contains(t, buf.String(), "complete the loan details")
}

func TestIntakeSubmit_CancelledFormDiscardsResponse(t *testing.T) {
	backend := &fakeBackend{createGate: make(chan struct{})}
	out, buf := newOutput()
	log := logger.NewTestLogger(t)
	s := NewIntakeScreen(backend, intake.NewAssembler("NGN", log), out, log)
	fillIntake(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return s.guard.Busy() }, time.Second, 5*time.Millisecond)
	s.Cancel()
	close(backend.createGate)

	err := <-done
	assert.True(t, errors.Is(err, errors.ErrCodeStaleResponse))
	assert.NotContains(t, buf.String(), "Customer created successfully!")
}

func TestApplyScreen_LookupAndSubmit(t *testing.T) {
	backend := &fakeBackend{
		customerErr: errors.NewNotFoundError("customer", "C9"),
		applyEnv:    &gateway.Envelope{IsSuccessful: true, Message: "Loan application received"},
	}
	out, buf := newOutput()
	log := logger.NewTestLogger(t)
	s := NewApplyScreen(backend, intake.NewAssembler("NGN", log), out, log)
	w := s.Wizard()

	require.NoError(t, w.Set("customerId", "C9"))
	require.NoError(t, s.LookupCustomer(context.Background()))
	assert.Equal(t, "Customer Not Found", s.CustomerName())
	assert.Contains(t, s.Render(), "Customer Not Found")

	require.True(t, s.Next())
	require.NoError(t, w.Set("loanType", "Weekly"))
	require.True(t, s.Next())
	require.NoError(t, w.Set("weeklyAmount", "20000"))
	require.NoError(t, w.Set("weeklyInterestRate", "4"))
	require.NoError(t, w.Set("weeklyDuration", "10"))

	msg, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Loan application received", msg)
	assert.Contains(t, buf.String(), "Loan application received")

	require.Len(t, backend.applied, 1)
	app := backend.applied[0].(intake.LoanApplication)
	assert.Equal(t, "C9", app.CustomerID)
	assert.Equal(t, 10, app.LoanPreference.DurationInWeeks)
	assert.Empty(t, s.CustomerName())
}

func TestApplyScreen_DefaultSuccessMessage(t *testing.T) {
	backend := &fakeBackend{customer: &models.Customer{ID: "C1", FullName: "Ada Obi"}}
	out, _ := newOutput()
	log := logger.NewNoOpLogger()
	s := NewApplyScreen(backend, intake.NewAssembler("NGN", log), out, log)
	w := s.Wizard()

	require.NoError(t, w.Set("customerId", "C1"))
	require.NoError(t, s.LookupCustomer(context.Background()))
	assert.Equal(t, "Ada Obi", s.CustomerName())

	require.True(t, s.Next())
	require.NoError(t, w.Set("loanType", "Monthly"))
	require.True(t, s.Next())
	require.NoError(t, w.Set("monthlyAmount", "20000"))
	require.NoError(t, w.Set("monthlyInterestRate", "4"))
	require.NoError(t, w.Set("monthlyDuration", "6"))

	msg, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, applicationSubmittedMessage, msg)
	assert.Equal(t, 24, backend.applied[0].(intake.LoanApplication).LoanPreference.DurationInWeeks)
}

func TestPaymentScreen_LoadSelectSubmit(t *testing.T) {
	due, err := models.ParseDate("2025-07-01")
	require.NoError(t, err)
	backend := &fakeBackend{
		loan:     &models.Loan{ID: "L-1", CustomerID: "C1", LoanGroup: "Weekly"},
		customer: &models.Customer{ID: "C1", FullName: "Ada Obi"},
		plan:     []models.Installment{{ID: "i1", DueDate: due, AmountDue: money.MustParse("1500.25")}},
	}
	out, buf := newOutput()
	s := NewPaymentScreen(backend, "NGN", false, out, logger.NewTestLogger(t))

	require.NoError(t, s.Load(context.Background(), "L-1"))
	assert.Contains(t, s.Render(), "Ada Obi")

	_, err = s.Submit(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeValidationFailed))
	assert.Empty(t, backend.payments)

	require.NoError(t, s.Select("i1"))
	receipt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Payment log created successfully!", receipt.Message)
	assert.Contains(t, buf.String(), "Payment log created successfully!")
	require.Len(t, backend.payments, 1)
	assert.Equal(t, "1500.25", backend.payments[0].Amount.String())
}

func TestReviewScreen_Decide(t *testing.T) {
	backend := &fakeBackend{}
	out, buf := newOutput()
	confirmed := false
	s := NewReviewScreen(backend, 10, func(prompt string) bool {
		assert.Contains(t, prompt, "L-5")
		return confirmed
	}, out, logger.NewTestLogger(t))

	ok, err := s.Decide(context.Background(), "loan", "default", "L-5")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, backend.loanCalls.Load())

	confirmed = true
	ok, err = s.Decide(context.Background(), "loan", "default", "L-5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, gateway.LoanDefaulted, backend.loanAction)
	assert.Contains(t, buf.String(), "Loan successfully marked as defaulted!")

	_, err = s.Decide(context.Background(), "payment", "default", "P-1")
	assert.True(t, errors.Is(err, errors.ErrCodeValidationFailed))
}

func TestReport_SilentForUnauthorizedAndStale(t *testing.T) {
	out, buf := newOutput()
	log := logger.NewNoOpLogger()

	report(out, log, "Failed", errors.NewUnauthorizedError("session expired"))
	report(out, log, "Failed", errors.NewStaleResponseError("plan"))
	assert.Empty(t, buf.String())

	report(out, log, "Failed to create customer", errors.NewApplicationError(500, "boom"))
	assert.Contains(t, buf.String(), "Failed to create customer: boom")
}

type fakeDirectory struct {
	query      models.CustomerSearch
	customers  models.Page[models.Customer]
	loansOf    string
	loans      models.Page[models.Loan]
	loansErr   error
	loansCalls int
}

func (f *fakeDirectory) SearchCustomers(ctx context.Context, q models.CustomerSearch) (models.Page[models.Customer], error) {
	f.query = q
	return f.customers, nil
}

func (f *fakeDirectory) CustomerLoans(ctx context.Context, customerID string, page, pageSize int) (models.Page[models.Loan], error) {
	f.loansCalls++
	f.loansOf = customerID
	return f.loans, f.loansErr
}

func TestCustomerScreen_SearchAndLoans(t *testing.T) {
	dir := &fakeDirectory{
		customers: models.Page[models.Customer]{Items: []models.Customer{{ID: "C1", FullName: "Jane Doe"}}, TotalCount: 1},
		loans:     models.Page[models.Loan]{Items: []models.Loan{{ID: "L-3", CustomerID: "C1", LoanGroup: "Weekly", Status: "Active"}}, TotalCount: 1},
	}
	out, buf := newOutput()
	s := NewCustomerScreen(dir, 5, out, logger.NewTestLogger(t))

	page, err := s.Search(context.Background(), "  Jane ", 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, models.CustomerSearch{PageNumber: 1, PageSize: 5, FullName: "Jane"}, dir.query)
	assert.Contains(t, buf.String(), "Jane Doe")

	_, err = s.Loans(context.Background(), "C1", 1)
	require.NoError(t, err)
	assert.Equal(t, "C1", dir.loansOf)
	assert.Contains(t, buf.String(), "L-3")

	_, err = s.Loans(context.Background(), " ", 1)
	assert.True(t, errors.Is(err, errors.ErrCodeValidationFailed))
	assert.Equal(t, 1, dir.loansCalls)
}

func TestCustomerScreen_LoansFailureReportedOnce(t *testing.T) {
	dir := &fakeDirectory{loansErr: errors.NewApplicationError(500, "backend down")}
	out, buf := newOutput()
	s := NewCustomerScreen(dir, 10, out, logger.NewNoOpLogger())

	_, err := s.Loans(context.Background(), "C1", 2)
	assert.True(t, errors.Is(err, errors.ErrCodeApplicationError))
	assert.Equal(t, 1, strings.Count(buf.String(), "Error fetching customer loans: backend down"))
}
