// internal/models/loan.go
package models

import (
	"fmt"
	"strings"

	"loan-console/internal/common/money"
)

// LoanType is the repayment cadence chosen on the intake form.
type LoanType string

const (
	LoanTypeWeekly  LoanType = "Weekly"
	LoanTypeMonthly LoanType = "Monthly"
)

// ParseLoanType accepts the canonical names case-insensitively.
func ParseLoanType(s string) (LoanType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return LoanTypeWeekly, nil
	case "monthly":
		return LoanTypeMonthly, nil
	}
	return "", fmt.Errorf("unknown loan type %q", s)
}

func (t LoanType) Valid() bool {
	return t == LoanTypeWeekly || t == LoanTypeMonthly
}

// LoanStatus values as reported by the backend.
const (
	LoanStatusPendingApproval = "Pending_Approver_Review"
	LoanStatusApproved        = "Approved"
	LoanStatusDeclined        = "Declined"
	LoanStatusDefaulted       = "Defaulted"
)

// LoanPreference is the loan request shared by customer intake and the
// standalone loan application.
type LoanPreference struct {
	LoanGroup       LoanType     `json:"loanGroup"`
	Amount          money.Amount `json:"amount"`
	CurrencyCode    string       `json:"currencyCode"`
	InterestRate    money.Amount `json:"interestRate"`
	DurationInWeeks int          `json:"durationInWeeks"`
}

// Loan is the backend loan record.
type Loan struct {
	ID                  string       `json:"id"`
	CustomerID          string       `json:"customerId"`
	LoanGroup           string       `json:"loanGroup"`
	Amount              money.Amount `json:"amount"`
	CurrencyCode        string       `json:"currencyCode,omitempty"`
	RepaymentAmount     money.Amount `json:"repaymentAmount"`
	InterestRatePercent money.Amount `json:"interestRatePercent"`
	DurationInWeeks     int          `json:"durationInWeeks"`
	Status              string       `json:"status"`
	Collateral          string       `json:"collateral,omitempty"`
	CreatedBy           string       `json:"createdBy,omitempty"`
	DateCreated         Date         `json:"dateCreated,omitempty"`
	ApprovedBy          string       `json:"approvedBy,omitempty"`
	DateApproved        Date         `json:"dateApproved,omitempty"`
	DeclinedBy          string       `json:"declinedBy,omitempty"`
	DateDeclined        Date         `json:"dateDeclined,omitempty"`
	DefaultedBy         string       `json:"defaultedBy,omitempty"`
	DateDefaulted       Date         `json:"dateDefaulted,omitempty"`
}

// Page is the paged list shape returned by list endpoints.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// TotalPages returns the number of pages for the given size.
func (p Page[T]) TotalPages(pageSize int) int {
	if pageSize <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + pageSize - 1) / pageSize
}
