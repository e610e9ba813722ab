package wizard

import (
	"fmt"

	"loan-console/internal/models"
)

// FieldKind is the type constraint checked on advance.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindNumber  FieldKind = "number"
	KindInteger FieldKind = "integer"
	KindDate    FieldKind = "date"
	KindEmail   FieldKind = "email"
	KindSelect  FieldKind = "select"
)

// Field is one input of a step.
type Field struct {
	// Name identifies the input within the form.
	Name string
	// Key is the name the value is exported under by Values. Branch fields
	// of different branches share a key, e.g. weeklyAmount and monthlyAmount
	// both export "amount". Defaults to Name.
	Key         string
	Label       string
	Kind        FieldKind
	Required    bool
	Options     []string
	Pattern     string
	Min         *float64
	Max         *float64
	Placeholder string
}

func (f Field) key() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Name
}

// Step is a group of fields shown together. Branch steps only enter the
// sequence once their branch has been selected.
type Step struct {
	ID     string
	Title  string
	Fields []Field
	Branch models.LoanType
}

// Branch binds a loan type to its detail step and duration input.
type Branch struct {
	Type          models.LoanType
	StepID        string
	DurationField string
}

// Definition declares one screen's wizard.
type Definition struct {
	Form          string
	Steps         []Step
	SelectorStep  string
	SelectorField string
	Branches      []Branch
}

// Validate checks the definition is internally consistent.
func (d *Definition) Validate() error {
	if d.Form == "" {
		return fmt.Errorf("wizard definition needs a form name")
	}
	steps := make(map[string]Step, len(d.Steps))
	fields := make(map[string]bool)
	base := 0
	for _, s := range d.Steps {
		if _, dup := steps[s.ID]; dup {
			return fmt.Errorf("%s: duplicate step %q", d.Form, s.ID)
		}
		steps[s.ID] = s
		if s.Branch == "" {
			base++
		}
		for _, f := range s.Fields {
			if fields[f.Name] {
				return fmt.Errorf("%s: duplicate field %q", d.Form, f.Name)
			}
			fields[f.Name] = true
		}
	}
	if base == 0 {
		return fmt.Errorf("%s: at least one non-branch step is required", d.Form)
	}

	if len(d.Branches) == 0 {
		return nil
	}
	sel, ok := steps[d.SelectorStep]
	if !ok || sel.Branch != "" {
		return fmt.Errorf("%s: selector step %q missing or is a branch step", d.Form, d.SelectorStep)
	}
	if !stepHasField(sel, d.SelectorField) {
		return fmt.Errorf("%s: selector field %q not on step %q", d.Form, d.SelectorField, d.SelectorStep)
	}
	for _, b := range d.Branches {
		st, ok := steps[b.StepID]
		if !ok || st.Branch != b.Type {
			return fmt.Errorf("%s: branch %s must point at a step tagged with it", d.Form, b.Type)
		}
		if b.DurationField != "" && !stepHasField(st, b.DurationField) {
			return fmt.Errorf("%s: duration field %q not on step %q", d.Form, b.DurationField, b.StepID)
		}
	}
	return nil
}

func stepHasField(s Step, name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (d *Definition) step(id string) (Step, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// baseSequence lists the non-branch step IDs in declaration order.
func (d *Definition) baseSequence() []string {
	var seq []string
	for _, s := range d.Steps {
		if s.Branch == "" {
			seq = append(seq, s.ID)
		}
	}
	return seq
}

func (d *Definition) field(name string) (Field, Step, bool) {
	for _, s := range d.Steps {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, s, true
			}
		}
	}
	return Field{}, Step{}, false
}

func bound(v float64) *float64 { return &v }
