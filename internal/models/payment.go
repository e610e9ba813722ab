// internal/models/payment.go
package models

import (
	"loan-console/internal/common/money"
)

// Installment is one entry of a loan's payment plan.
type Installment struct {
	ID        string       `json:"id"`
	DueDate   Date         `json:"dueDate"`
	AmountDue money.Amount `json:"amountPerInstallment"`
	IsPaid    bool         `json:"isPaid"`
}

// PaymentRequest is the body for POST /paymentlog.
type PaymentRequest struct {
	LoanID       string       `json:"loanId"`
	Amount       money.Amount `json:"amount"`
	CurrencyCode string       `json:"currencyCode"`
	RepaymentID  string       `json:"repaymentId,omitempty"`
}

const PaymentStatusPendingReview = "Pending_Approver_Review"

// PaymentLog is a logged payment awaiting or past review.
type PaymentLog struct {
	PaymentLogID string       `json:"paymentLogId"`
	LoanID       string       `json:"loanId"`
	AmountPaid   money.Amount `json:"amountPaid"`
	DateLogged   Date         `json:"dateLogged,omitempty"`
	LoggedBy     string       `json:"loggedBy,omitempty"`
	Status       string       `json:"status"`
}
