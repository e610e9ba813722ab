// Package intake turns wizard values into the request bodies the backend
// accepts for new customers and loan applications.
package intake

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/money"
	"loan-console/internal/models"
	"loan-console/internal/wizard"
)

// weeksPerMonth converts monthly durations to the weeks the backend stores.
// A month is not four weeks; the backend contract is built on this
// approximation and the plan it generates depends on it.
const weeksPerMonth = 4

// LoanApplication is the body of POST /customer/loan.
type LoanApplication struct {
	CustomerID     string                `json:"customerId"`
	LoanPreference models.LoanPreference `json:"loanPreference"`
}

// CustomerPayload is the body of POST /customer.
type CustomerPayload struct {
	FullName           string                `json:"fullName"`
	DateOfBirth        string                `json:"dateOfBirth"`
	Email              string                `json:"email"`
	PhoneNumber        string                `json:"phonenumber"`
	MaritalStatus      string                `json:"maritalStatus"`
	Gender             string                `json:"gender"`
	ResidentialAddress string                `json:"residentialAddress"`
	EmploymentStatus   string                `json:"employmentStatus"`
	MonthlyIncome      money.Amount          `json:"monthlyIncome"`
	SelfieURL          string                `json:"selfieUrl"`
	LoanPreference     models.LoanPreference `json:"loanPreference"`
	Guarantor          models.Guarantor      `json:"guarantor"`
	Identification     models.Identification `json:"identification"`
	BVN                string                `json:"bvn"`
}

// Assembler builds request bodies. It holds no per-submission state.
type Assembler struct {
	currency string
	log      logger.Logger
}

func NewAssembler(currency string, log logger.Logger) *Assembler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Assembler{currency: strings.ToUpper(currency), log: log.Named("intake")}
}

// BuildLoanPreference reads amount, interest rate and duration for branch
// from values. Numbers are parsed locale-invariantly: "5000.50" is accepted,
// "5,000" is not.
func (a *Assembler) BuildLoanPreference(values map[string]string, branch models.LoanType) (models.LoanPreference, error) {
	if !branch.Valid() {
		return models.LoanPreference{}, errors.NewValidationError(wizard.KeyLoanType, "Please select a loan type.")
	}
	if !money.ValidCurrency(a.currency) {
		return models.LoanPreference{}, errors.NewConfigError(fmt.Sprintf("currency code %q is not a 3-letter code", a.currency))
	}

	amount, err := money.Parse(values[wizard.KeyAmount])
	if err != nil || !amount.IsPositive() {
		return models.LoanPreference{}, errors.NewValidationError(wizard.KeyAmount, "Loan amount must be a number greater than zero.")
	}
	rate, err := money.Parse(values[wizard.KeyInterestRate])
	if err != nil || rate.IsNegative() {
		return models.LoanPreference{}, errors.NewValidationError(wizard.KeyInterestRate, "Interest rate must be a number of zero or more.")
	}
	duration, err := strconv.Atoi(strings.TrimSpace(values[wizard.KeyDuration]))
	if err != nil || duration <= 0 {
		return models.LoanPreference{}, errors.NewValidationError(wizard.KeyDuration, "Duration must be a whole number greater than zero.")
	}

	weeks := duration
	if branch == models.LoanTypeMonthly {
		// Months to weeks at a flat 4 weeks per month, as the backend expects.
		weeks = duration * weeksPerMonth
	}

	pref := models.LoanPreference{
		LoanGroup:       branch,
		Amount:          amount,
		CurrencyCode:    a.currency,
		InterestRate:    rate,
		DurationInWeeks: weeks,
	}
	a.log.Debug("assembled loan preference", map[string]interface{}{
		"loan_group":        branch,
		"duration_in_weeks": weeks,
	})
	return pref, nil
}

// BuildLoanApplication assembles the standalone application body.
func (a *Assembler) BuildLoanApplication(customerID string, values map[string]string, branch models.LoanType) (LoanApplication, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return LoanApplication{}, errors.NewValidationError(wizard.KeyCustomerID, "Customer ID is required.")
	}
	pref, err := a.BuildLoanPreference(values, branch)
	if err != nil {
		return LoanApplication{}, err
	}

	app := LoanApplication{CustomerID: customerID, LoanPreference: pref}
	if err := checkSchema(loanApplicationSchema, app); err != nil {
		return LoanApplication{}, err
	}
	return app, nil
}

// BuildCustomerPayload assembles the new-customer body, loan preference
// included, from the intake wizard's values.
func (a *Assembler) BuildCustomerPayload(values map[string]string, branch models.LoanType) (CustomerPayload, error) {
	pref, err := a.BuildLoanPreference(values, branch)
	if err != nil {
		return CustomerPayload{}, err
	}

	income, err := money.Parse(values["monthlyIncome"])
	if err != nil || income.IsNegative() {
		return CustomerPayload{}, errors.NewValidationError("monthlyIncome", "Monthly income must be a number of zero or more.")
	}

	p := CustomerPayload{
		FullName:           values["fullName"],
		DateOfBirth:        values["dateOfBirth"],
		Email:              values["email"],
		PhoneNumber:        values["phoneNumber"],
		MaritalStatus:      values["maritalStatus"],
		Gender:             values["gender"],
		ResidentialAddress: values["residentialAddress"],
		EmploymentStatus:   values["employmentStatus"],
		MonthlyIncome:      income,
		LoanPreference:     pref,
		Guarantor: models.Guarantor{
			FullName:               values["guarantorName"],
			RelationshipToCustomer: values["guarantorRelation"],
			ResidentialAddress:     values["guarantorAddress"],
			PhoneNumber:            values["guarantorPhone"],
			EmailAddress:           values["guarantorEmail"],
			Identification: models.Identification{
				IdentificationType:   values["guarantorIdType"],
				IdentificationNumber: values["guarantorIdNumber"],
			},
		},
		Identification: models.Identification{
			IdentificationType:   values["idType"],
			IdentificationNumber: values["idNumber"],
		},
		BVN: values["bvn"],
	}

	if err := p.validate(); err != nil {
		return CustomerPayload{}, err
	}
	if err := checkSchema(customerSchema, p); err != nil {
		return CustomerPayload{}, err
	}
	return p, nil
}

func (p *CustomerPayload) validate() error {
	err := validation.ValidateStruct(p,
		validation.Field(&p.FullName, validation.Required),
		validation.Field(&p.DateOfBirth, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.PhoneNumber, validation.Required),
		validation.Field(&p.Gender, validation.Required),
		validation.Field(&p.ResidentialAddress, validation.Required),
		validation.Field(&p.EmploymentStatus, validation.Required),
		validation.Field(&p.BVN, validation.Required, validation.Length(11, 11), is.Digit),
	)
	if err != nil {
		return firstFieldError("", err)
	}
	err = validation.ValidateStruct(&p.Guarantor,
		validation.Field(&p.Guarantor.FullName, validation.Required),
		validation.Field(&p.Guarantor.RelationshipToCustomer, validation.Required),
		validation.Field(&p.Guarantor.PhoneNumber, validation.Required),
		validation.Field(&p.Guarantor.EmailAddress, is.EmailFormat),
	)
	if err != nil {
		return firstFieldError("guarantor.", err)
	}
	return nil
}

// firstFieldError reports the first failing field by name, so a payload
// error points at one input like a wizard validation error does.
func firstFieldError(prefix string, err error) error {
	fieldErrs, ok := err.(validation.Errors)
	if !ok || len(fieldErrs) == 0 {
		return errors.Normalize(err)
	}
	names := make([]string, 0, len(fieldErrs))
	for name := range fieldErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	name := names[0]
	return errors.NewValidationError(prefix+name, fmt.Sprintf("%s%s %s", prefix, name, fieldErrs[name].Error()))
}
