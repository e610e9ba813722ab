package wizard

import "loan-console/internal/models"

// Form names, also used as metric labels.
const (
	FormCustomerIntake = "customer_intake"
	FormLoanApply      = "loan_apply"
)

// Keys under which Values exports the loan fields of either branch.
const (
	KeyLoanType      = "loanType"
	KeyAmount        = "amount"
	KeyInterestRate  = "interestRate"
	KeyDuration      = "duration"
	KeyRepaymentDate = "repaymentDate"
	KeyGroup         = "group"
	KeyCustomerID    = "customerId"
)

var (
	genders          = []string{"Male", "Female"}
	maritalStatuses  = []string{"Single", "Married", "Divorced", "Widowed"}
	employment       = []string{"Employed", "Self-Employed", "Unemployed", "Student", "Retired"}
	idTypes          = []string{"NIN", "Drivers License", "International Passport", "Voters Card"}
	loanTypeSelector = []string{string(models.LoanTypeWeekly), string(models.LoanTypeMonthly)}
)

func selectorStep() Step {
	return Step{
		ID:    "loan-type",
		Title: "Loan Type",
		Fields: []Field{
			{Name: "loanType", Key: KeyLoanType, Label: "Loan type", Kind: KindSelect, Required: true, Options: loanTypeSelector},
		},
	}
}

// weeklyStep builds the weekly branch. Intake collects the customer's
// lending group; the standalone form does not.
func weeklyStep(withGroup bool) Step {
	fields := []Field{
		{Name: "weeklyAmount", Key: KeyAmount, Label: "Amount", Kind: KindNumber, Required: true, Min: bound(1)},
	}
	if withGroup {
		fields = append(fields, Field{Name: "weeklyGroup", Key: KeyGroup, Label: "Group", Kind: KindText, Required: true})
	}
	return Step{
		ID:     "weekly-loan",
		Title:  "Weekly Loan Details",
		Branch: models.LoanTypeWeekly,
		Fields: append(fields, []Field{
			{Name: "weeklyInterestRate", Key: KeyInterestRate, Label: "Interest rate (%)", Kind: KindNumber, Required: true, Min: bound(0)},
			{Name: "weeklyDuration", Key: KeyDuration, Label: "Duration", Kind: KindInteger, Required: true},
			{Name: "weeklyRepaymentDate", Key: KeyRepaymentDate, Label: "First repayment date", Kind: KindDate},
		}...),
	}
}

func monthlyStep() Step {
	return Step{
		ID:     "monthly-loan",
		Title:  "Monthly Loan Details",
		Branch: models.LoanTypeMonthly,
		Fields: []Field{
			{Name: "monthlyAmount", Key: KeyAmount, Label: "Amount", Kind: KindNumber, Required: true, Min: bound(1)},
			{Name: "monthlyInterestRate", Key: KeyInterestRate, Label: "Interest rate (%)", Kind: KindNumber, Required: true, Min: bound(0)},
			{Name: "monthlyDuration", Key: KeyDuration, Label: "Duration", Kind: KindInteger, Required: true},
			{Name: "monthlyRepaymentDate", Key: KeyRepaymentDate, Label: "First repayment date", Kind: KindDate},
		},
	}
}

func loanBranches() []Branch {
	return []Branch{
		{Type: models.LoanTypeWeekly, StepID: "weekly-loan", DurationField: "weeklyDuration"},
		{Type: models.LoanTypeMonthly, StepID: "monthly-loan", DurationField: "monthlyDuration"},
	}
}

// CustomerIntake is the new-customer form: personal details, contact and
// identification, guarantor, then the loan preference.
func CustomerIntake() *Definition {
	return &Definition{
		Form: FormCustomerIntake,
		Steps: []Step{
			{
				ID:    "personal",
				Title: "Personal Information",
				Fields: []Field{
					{Name: "fullName", Label: "Full name", Kind: KindText, Required: true},
					{Name: "dob", Key: "dateOfBirth", Label: "Date of birth", Kind: KindDate, Required: true},
					{Name: "gender", Label: "Gender", Kind: KindSelect, Required: true, Options: genders},
					{Name: "maritalStatus", Label: "Marital status", Kind: KindSelect, Required: true, Options: maritalStatuses},
					{Name: "address", Key: "residentialAddress", Label: "Residential address", Kind: KindText, Required: true},
				},
			},
			{
				ID:    "employment-id",
				Title: "Contact, Employment & Identification",
				Fields: []Field{
					{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
					{Name: "phone", Key: "phoneNumber", Label: "Phone number", Kind: KindText, Required: true, Pattern: `^\+?[0-9]{7,15}$`},
					{Name: "employment_status", Key: "employmentStatus", Label: "Employment status", Kind: KindSelect, Required: true, Options: employment},
					{Name: "income", Key: "monthlyIncome", Label: "Monthly income", Kind: KindNumber, Required: true, Min: bound(0)},
					{Name: "idType", Label: "ID type", Kind: KindSelect, Required: true, Options: idTypes},
					{Name: "idNumber", Label: "ID number", Kind: KindText, Required: true},
					{Name: "bvn", Label: "BVN", Kind: KindText, Required: true, Pattern: `^[0-9]{11}$`},
				},
			},
			{
				ID:    "guarantor",
				Title: "Guarantor",
				Fields: []Field{
					{Name: "nextKinName", Key: "guarantorName", Label: "Guarantor name", Kind: KindText, Required: true},
					{Name: "nextKinRelation", Key: "guarantorRelation", Label: "Relationship to customer", Kind: KindText, Required: true},
					{Name: "nextKinPhone", Key: "guarantorPhone", Label: "Guarantor phone", Kind: KindText, Required: true, Pattern: `^\+?[0-9]{7,15}$`},
					{Name: "guarantorEmail", Label: "Guarantor email", Kind: KindEmail},
					{Name: "guarantorIdType", Label: "Guarantor ID type", Kind: KindSelect, Required: true, Options: idTypes},
					{Name: "guarantorIdNumber", Label: "Guarantor ID number", Kind: KindText, Required: true},
					{Name: "nextKinAddress", Key: "guarantorAddress", Label: "Guarantor address", Kind: KindText},
				},
			},
			selectorStep(),
			weeklyStep(true),
			monthlyStep(),
		},
		SelectorStep:  "loan-type",
		SelectorField: "loanType",
		Branches:      loanBranches(),
	}
}

// LoanApply is the standalone application form for an existing customer.
func LoanApply() *Definition {
	return &Definition{
		Form: FormLoanApply,
		Steps: []Step{
			{
				ID:    "customer",
				Title: "Customer",
				Fields: []Field{
					{Name: "customerId", Key: KeyCustomerID, Label: "Customer ID", Kind: KindText, Required: true},
				},
			},
			selectorStep(),
			weeklyStep(false),
			monthlyStep(),
		},
		SelectorStep:  "loan-type",
		SelectorField: "loanType",
		Branches:      loanBranches(),
	}
}
