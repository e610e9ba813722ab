package intake

import (
	"fmt"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/validation"
)

const loanPreferenceSchema = `{
	"type": "object",
	"required": ["loanGroup", "amount", "currencyCode", "interestRate", "durationInWeeks"],
	"properties": {
		"loanGroup": {"enum": ["Weekly", "Monthly"]},
		"amount": {"type": "number", "exclusiveMinimum": 0},
		"currencyCode": {"type": "string", "pattern": "^[A-Z]{3}$"},
		"interestRate": {"type": "number", "minimum": 0},
		"durationInWeeks": {"type": "integer", "minimum": 1}
	}
}`

var (
	loanApplicationSchema = validation.MustCompile("loan-application", fmt.Sprintf(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["customerId", "loanPreference"],
	"properties": {
		"customerId": {"type": "string", "minLength": 1},
		"loanPreference": %s
	}
}`, loanPreferenceSchema))

	customerSchema = validation.MustCompile("customer", fmt.Sprintf(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["fullName", "dateOfBirth", "email", "phonenumber", "gender", "residentialAddress",
		"employmentStatus", "monthlyIncome", "selfieUrl", "loanPreference", "guarantor", "identification", "bvn"],
	"properties": {
		"fullName": {"type": "string", "minLength": 1},
		"dateOfBirth": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
		"email": {"type": "string", "minLength": 3},
		"phonenumber": {"type": "string", "minLength": 1},
		"monthlyIncome": {"type": "number", "minimum": 0},
		"selfieUrl": {"type": "string"},
		"bvn": {"type": "string", "pattern": "^[0-9]{11}$"},
		"loanPreference": %s,
		"identification": {"$ref": "#/definitions/identification"},
		"guarantor": {
			"type": "object",
			"required": ["fullName", "relationshipToCustomer", "phoneNumber", "identification"],
			"properties": {
				"fullName": {"type": "string", "minLength": 1},
				"identification": {"$ref": "#/definitions/identification"}
			}
		}
	},
	"definitions": {
		"identification": {
			"type": "object",
			"required": ["identificationType", "identificationNumber"],
			"properties": {
				"identificationType": {"type": "string", "minLength": 1},
				"identificationNumber": {"type": "string", "minLength": 1}
			}
		}
	}
}`, loanPreferenceSchema))
)

// checkSchema turns the first schema violation into a validation error so
// every entry flow reports contract breaks the same way.
func checkSchema(s *validation.Schema, doc interface{}) error {
	res, err := s.Check(doc)
	if err != nil {
		return errors.Normalize(err)
	}
	if res.Valid {
		return nil
	}
	first := res.Errors[0]
	return errors.NewValidationError(first.Field, fmt.Sprintf("%s payload rejected: %s", s.Name(), res.Summary()))
}
