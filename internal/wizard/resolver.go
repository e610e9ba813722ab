package wizard

import (
	"fmt"
	"strings"

	"loan-console/internal/common/errors"
	"loan-console/internal/models"
)

// DurationBounds is the allowed duration range for a branch, in the
// branch's own unit. Unit conversion happens at submission, not here.
type DurationBounds struct {
	Min  int
	Max  int
	Unit string
}

// Placeholder is the hint shown in the duration input.
func (b DurationBounds) Placeholder() string {
	return fmt.Sprintf("Duration in %s (%d-%d)", b.Unit, b.Min, b.Max)
}

var durationBounds = map[models.LoanType]DurationBounds{
	models.LoanTypeWeekly:  {Min: 1, Max: 23, Unit: "weeks"},
	models.LoanTypeMonthly: {Min: 1, Max: 6, Unit: "months"},
}

// BoundsFor returns the duration bounds of a loan type.
func BoundsFor(t models.LoanType) (DurationBounds, bool) {
	b, ok := durationBounds[t]
	return b, ok
}

// Resolution is what selecting a branch changes.
type Resolution struct {
	Branch models.LoanType
	StepID string
	// Required lists the fields that become required.
	Required []string
	// Cleared lists the fields of every other branch, explicitly not required.
	Cleared  []string
	Duration DurationBounds
}

// Resolver maps a selector value to its branch step.
type Resolver struct {
	def *Definition
}

func NewResolver(def *Definition) *Resolver {
	return &Resolver{def: def}
}

// Resolve returns the resolution for a selector value. Empty values are
// rejected by step validation before this runs; here they are an error like
// any other unknown value.
func (r *Resolver) Resolve(value string) (Resolution, error) {
	lt, err := models.ParseLoanType(value)
	if err != nil {
		return Resolution{}, errors.NewValidationError(r.def.SelectorField,
			fmt.Sprintf("Unknown loan type %q. Choose %s or %s.", strings.TrimSpace(value), models.LoanTypeWeekly, models.LoanTypeMonthly))
	}

	var res Resolution
	found := false
	for _, b := range r.def.Branches {
		st, _ := r.def.step(b.StepID)
		if b.Type == lt {
			found = true
			res.Branch = lt
			res.StepID = b.StepID
			for _, f := range st.Fields {
				if f.Required {
					res.Required = append(res.Required, f.Name)
				}
			}
			continue
		}
		for _, f := range st.Fields {
			res.Cleared = append(res.Cleared, f.Name)
		}
	}
	if !found {
		return Resolution{}, errors.NewValidationError(r.def.SelectorField,
			fmt.Sprintf("Loan type %s is not offered on this form.", lt))
	}

	res.Duration = durationBounds[lt]
	return res, nil
}
