package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"loan-console/internal/common/errors"
	"loan-console/internal/models"
)

// Login exchanges operator credentials for a bearer token and stores it.
// The token may arrive at the top level or inside the envelope payload.
func (c *Client) Login(ctx context.Context, loginPath, email, password string) (models.LoginResponse, error) {
	if loginPath == "" {
		loginPath = "/Auth/login"
	}
	raw, err := c.roundTrip(ctx, Call{
		Name:      "auth.login",
		Method:    http.MethodPost,
		Path:      loginPath,
		Body:      models.LoginRequest{Email: email, Password: password},
		Anonymous: true,
	})
	if err != nil {
		return models.LoginResponse{}, err
	}

	var top struct {
		models.LoginResponse
		Envelope
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return models.LoginResponse{}, errors.NewDecodeError(err)
	}

	creds := top.LoginResponse
	if creds.Token == "" && len(top.ResponseObject) > 0 {
		if !top.IsSuccessful {
			return models.LoginResponse{}, errors.NewApplicationError(0, top.FailureMessage())
		}
		if err := json.Unmarshal(top.ResponseObject, &creds); err != nil {
			return models.LoginResponse{}, errors.NewDecodeError(err)
		}
	}
	if creds.Token == "" {
		return models.LoginResponse{}, errors.NewApplicationError(0, "Login response did not contain a token")
	}

	if err := c.session.Save(ctx, creds.Token, creds.RefreshToken); err != nil {
		return models.LoginResponse{}, errors.Normalize(err)
	}
	c.anonymousTeardown.Store(false)
	return creds, nil
}

// Logout clears the stored credential.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// --- Customers ---

// CreateCustomer posts a new customer. The envelope is returned so callers
// can read both the created record and the backend's message.
func (c *Client) CreateCustomer(ctx context.Context, payload interface{}) (*Envelope, error) {
	return c.submit(ctx, Call{Name: "customer.create", Method: http.MethodPost, Path: "/customer", Body: payload})
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if err := requireID("customerId", id); err != nil {
		return nil, err
	}
	var customer models.Customer
	if err := c.Fetch(ctx, Call{Name: "customer.get", Method: http.MethodGet, Path: "/customer/" + url.PathEscape(id)}, &customer); err != nil {
		return nil, err
	}
	if customer.ID == "" && customer.FullName == "" {
		return nil, errors.NewNotFoundError("customer", id)
	}
	return &customer, nil
}

func (c *Client) SearchCustomers(ctx context.Context, q models.CustomerSearch) (models.Page[models.Customer], error) {
	var page models.Page[models.Customer]
	err := c.Fetch(ctx, Call{Name: "customer.search", Method: http.MethodPost, Path: "/customer/search", Body: q}, &page)
	return page, err
}

// --- Loans ---

func (c *Client) ApplyLoan(ctx context.Context, payload interface{}) (*Envelope, error) {
	return c.submit(ctx, Call{Name: "loan.apply", Method: http.MethodPost, Path: "/customer/loan", Body: payload})
}

func (c *Client) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	if err := requireID("loanId", loanID); err != nil {
		return nil, err
	}
	var loan models.Loan
	if err := c.Fetch(ctx, Call{Name: "loan.get", Method: http.MethodGet, Path: "/customer/loan/" + url.PathEscape(loanID)}, &loan); err != nil {
		return nil, err
	}
	if loan.ID == "" {
		return nil, errors.NewNotFoundError("loan", loanID)
	}
	return &loan, nil
}

func (c *Client) PaymentPlan(ctx context.Context, loanID string) ([]models.Installment, error) {
	if err := requireID("loanId", loanID); err != nil {
		return nil, err
	}
	var plan []models.Installment
	err := c.Fetch(ctx, Call{
		Name:   "loan.paymentplan",
		Method: http.MethodGet,
		Path:   "/customer/loan/" + url.PathEscape(loanID) + "/paymentplan",
	}, &plan)
	return plan, err
}

// ListLoans pages through loans, optionally filtered by status.
func (c *Client) ListLoans(ctx context.Context, page, pageSize int, status string) (models.Page[models.Loan], error) {
	var out models.Page[models.Loan]
	err := c.Fetch(ctx, Call{
		Name:   "loan.list",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/customer/loan/pagenumber/%d/pagesize/%d", page, pageSize),
		Query:  statusQuery(status),
	}, &out)
	return out, err
}

// CustomerLoans pages through one customer's loans.
func (c *Client) CustomerLoans(ctx context.Context, customerID string, page, pageSize int) (models.Page[models.Loan], error) {
	var out models.Page[models.Loan]
	if err := requireID("customerId", customerID); err != nil {
		return out, err
	}
	err := c.Fetch(ctx, Call{
		Name:   "customer.loans",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/customer/%s/loan/pagenumber/%d/pagesize/%d", url.PathEscape(customerID), page, pageSize),
	}, &out)
	return out, err
}

// LoanAction is a review transition on a loan.
type LoanAction string

const (
	LoanApprove   LoanAction = "approve"
	LoanDecline   LoanAction = "decline"
	LoanDefaulted LoanAction = "defaulted"
)

func (c *Client) TransitionLoan(ctx context.Context, loanID string, action LoanAction) (*Envelope, error) {
	if err := requireID("loanId", loanID); err != nil {
		return nil, err
	}
	switch action {
	case LoanApprove, LoanDecline, LoanDefaulted:
	default:
		return nil, errors.NewValidationError("action", fmt.Sprintf("unknown loan action %q", action))
	}
	return c.submit(ctx, Call{
		Name:   "loan." + string(action),
		Method: http.MethodPost,
		Path:   "/customer/loan/" + url.PathEscape(loanID) + "/" + string(action),
	})
}

// --- Payment logs ---

func (c *Client) LogPayment(ctx context.Context, req models.PaymentRequest) (*Envelope, error) {
	return c.submit(ctx, Call{Name: "paymentlog.create", Method: http.MethodPost, Path: "/paymentlog", Body: req})
}

func (c *Client) ListPaymentLogs(ctx context.Context, page, pageSize int, status string) (models.Page[models.PaymentLog], error) {
	var out models.Page[models.PaymentLog]
	err := c.Fetch(ctx, Call{
		Name:   "paymentlog.list",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/paymentlog/pagenumber/%d/pagesize/%d", page, pageSize),
		Query:  statusQuery(status),
	}, &out)
	return out, err
}

// PaymentAction is a review transition on a payment log.
type PaymentAction string

const (
	PaymentApprove PaymentAction = "approve"
	PaymentDecline PaymentAction = "decline"
)

func (c *Client) TransitionPayment(ctx context.Context, paymentLogID string, action PaymentAction) (*Envelope, error) {
	if err := requirePaymentLogID(paymentLogID); err != nil {
		return nil, err
	}
	if action != PaymentApprove && action != PaymentDecline {
		return nil, errors.NewValidationError("action", fmt.Sprintf("unknown payment action %q", action))
	}
	return c.submit(ctx, Call{
		Name:   "paymentlog." + string(action),
		Method: http.MethodPost,
		Path:   "/paymentlog/" + url.PathEscape(paymentLogID) + "/" + string(action),
	})
}

// submit performs a mutating call and fails on an unsuccessful envelope.
func (c *Client) submit(ctx context.Context, call Call) (*Envelope, error) {
	env, err := c.Request(ctx, call)
	if err != nil {
		return nil, err
	}
	if err := env.Decode(nil); err != nil {
		return nil, err
	}
	return env, nil
}

func statusQuery(status string) url.Values {
	if status == "" {
		return nil
	}
	return url.Values{"status": []string{status}}
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return nil
}

// requirePaymentLogID rejects the placeholder IDs a stale list row can carry.
func requirePaymentLogID(id string) error {
	switch strings.TrimSpace(id) {
	case "", "N/A", "undefined", "null", "00000000-0000-0000-0000-000000000000":
		return errors.NewValidationError("paymentLogId", "Invalid Payment Log ID. Please refresh and try again.")
	}
	return nil
}
