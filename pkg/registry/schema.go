// pkg/registry/schema.go
package registry

// Catalog describes every operator form: its steps, fields and loan-type
// branches. It is the document handed to the backend team to keep server
// validation in line with the console.
type Catalog struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Forms       []Form `json:"forms"`
}

type Form struct {
	ID            string   `json:"id"`
	SelectorField string   `json:"selectorField,omitempty"`
	Steps         []Step   `json:"steps"`
	Branches      []Branch `json:"branches,omitempty"`
}

type Step struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Branch string  `json:"branch,omitempty"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name     string   `json:"name"`
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Branch is a loan type with its detail step and duration range. The range
// is in Unit; submissions carry weeks.
type Branch struct {
	LoanType      string `json:"loanType"`
	StepID        string `json:"stepId"`
	DurationField string `json:"durationField"`
	DurationMin   int    `json:"durationMin"`
	DurationMax   int    `json:"durationMax"`
	Unit          string `json:"unit"`
}
