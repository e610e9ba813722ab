// internal/models/customer.go
package models

type Identification struct {
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	IdentificationURL    string `json:"identificationUrl"`
}

type Guarantor struct {
	FullName               string         `json:"fullName"`
	RelationshipToCustomer string         `json:"relationshipToCustomer"`
	ResidentialAddress     string         `json:"residentialAddress"`
	PhoneNumber            string         `json:"phoneNumber"`
	EmailAddress           string         `json:"emailAddress"`
	Identification         Identification `json:"identification"`
}

// Customer is the backend customer record. Only the fields the console
// reads are mapped.
type Customer struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	BVN         string `json:"bvn,omitempty"`
}

// CustomerSearch is the body for POST /customer/search.
type CustomerSearch struct {
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
	FullName   string `json:"fullName,omitempty"`
}
