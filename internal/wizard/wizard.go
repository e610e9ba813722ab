// Package wizard drives multi-step forms: one active step at a time,
// validation gating forward movement, and a selector step that splices in
// the branch step for the chosen loan type.
package wizard

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/metrics"
	"loan-console/internal/models"
)

// ErrStepOutOfRange is returned by ShowStep for an index outside the
// current sequence.
var ErrStepOutOfRange = stderrors.New("wizard: step index out of range")

// Wizard is the state of one form on screen. It is safe for concurrent use.
type Wizard struct {
	mu       sync.Mutex
	def      *Definition
	resolver *Resolver

	sequence []string
	current  int
	branch   models.LoanType
	values   map[string]string
	// session changes on Reset so that late responses for a previous
	// filling of the form can be recognised.
	session string
}

// New builds a wizard positioned on the first step.
func New(def *Definition) (*Wizard, error) {
	if err := def.Validate(); err != nil {
		return nil, errors.NewConfigError(err.Error())
	}
	w := &Wizard{def: def, resolver: NewResolver(def)}
	w.reset()
	return w, nil
}

// MustNew is New for the built-in definitions.
func MustNew(def *Definition) *Wizard {
	w, err := New(def)
	if err != nil {
		panic(err)
	}
	return w
}

func (w *Wizard) reset() {
	w.sequence = w.def.baseSequence()
	w.current = 0
	w.branch = ""
	w.values = make(map[string]string)
	w.session = uuid.NewString()
}

// Reset clears every value and returns to the first step.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

// Form is the definition's form name.
func (w *Wizard) Form() string { return w.def.Form }

// Session identifies the current filling of the form.
func (w *Wizard) Session() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// Branch is the selected loan type, empty before selection.
func (w *Wizard) Branch() models.LoanType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.branch
}

// Current is the index of the active step.
func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Set stores a field value. Changing the selector re-resolves the branch
// immediately; the position only moves on Advance.
func (w *Wizard) Set(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, _, ok := w.def.field(name); !ok {
		return errors.NewValidationError(name, fmt.Sprintf("%s is not a field of %s", name, w.def.Form))
	}
	w.values[name] = value

	if name != w.def.SelectorField || len(w.def.Branches) == 0 {
		return nil
	}
	if strings.TrimSpace(value) == "" {
		w.clearBranch()
		return nil
	}
	res, err := w.resolver.Resolve(value)
	if err != nil {
		w.clearBranch()
		return err
	}
	w.values[name] = string(res.Branch)
	w.applyBranch(res)
	return nil
}

// Value returns the raw value of a field.
func (w *Wizard) Value(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.values[name]
}

// ShowStep activates the step at index i of the current sequence.
func (w *Wizard) ShowStep(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.sequence) {
		return fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, i, len(w.sequence))
	}
	w.current = i
	return nil
}

// Advance validates the active step and moves forward. From the selector
// step it jumps to the chosen branch step; elsewhere it moves one step,
// staying put on the last one.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.validateCurrent(); err != nil {
		return err
	}

	id := w.sequence[w.current]
	if id == w.def.SelectorStep && len(w.def.Branches) > 0 {
		res, err := w.resolver.Resolve(w.values[w.def.SelectorField])
		if err != nil {
			metrics.WizardValidationFailures.WithLabelValues(w.def.Form, w.def.SelectorField).Inc()
			return err
		}
		w.applyBranch(res)
		w.current = w.indexOf(res.StepID)
		metrics.WizardTransitions.WithLabelValues(w.def.Form, "branch").Inc()
		return nil
	}

	if w.current < len(w.sequence)-1 {
		w.current++
		metrics.WizardTransitions.WithLabelValues(w.def.Form, "next").Inc()
	}
	return nil
}

// Retreat moves back one step. Leaving a branch step returns to the
// selector and clears the selection.
func (w *Wizard) Retreat() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, _ := w.def.step(w.sequence[w.current]); st.Branch != "" {
		w.values[w.def.SelectorField] = ""
		w.clearBranch()
		w.current = w.indexOf(w.def.SelectorStep)
		metrics.WizardTransitions.WithLabelValues(w.def.Form, "branch_back").Inc()
		return
	}
	if w.current > 0 {
		w.current--
		metrics.WizardTransitions.WithLabelValues(w.def.Form, "prev").Inc()
	}
}

// ValidateCurrent checks the active step without moving.
func (w *Wizard) ValidateCurrent() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateCurrent()
}

// CanSubmit reports whether the active step is the final one: the branch
// step on branching forms, the last step otherwise.
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.def.Branches) > 0 {
		st, _ := w.def.step(w.sequence[w.current])
		return st.Branch != ""
	}
	return w.current == len(w.sequence)-1
}

// Values exports the entered values under their keys. Branch fields are
// included only for the selected branch, and the selected loan type is
// exported under the selector's key.
func (w *Wizard) Values() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]string, len(w.values))
	for _, s := range w.def.Steps {
		if s.Branch != "" && s.Branch != w.branch {
			continue
		}
		for _, f := range s.Fields {
			out[f.key()] = strings.TrimSpace(w.values[f.Name])
		}
	}
	if w.def.SelectorField != "" && w.branch != "" {
		sel, _, _ := w.def.field(w.def.SelectorField)
		out[sel.key()] = string(w.branch)
	}
	return out
}

func (w *Wizard) validateCurrent() error {
	st, _ := w.def.step(w.sequence[w.current])
	for _, f := range st.Fields {
		if err := checkField(f, w.values[f.Name], w.required(f, st), w.boundsFor(f, st)); err != nil {
			metrics.WizardValidationFailures.WithLabelValues(w.def.Form, f.Name).Inc()
			return err
		}
	}
	return nil
}

// required is the effective requiredness: branch fields only count while
// their branch is the selected one.
func (w *Wizard) required(f Field, st Step) bool {
	if !f.Required {
		return false
	}
	return st.Branch == "" || st.Branch == w.branch
}

func (w *Wizard) boundsFor(f Field, st Step) *DurationBounds {
	if st.Branch == "" {
		return nil
	}
	for _, b := range w.def.Branches {
		if b.Type == st.Branch && b.DurationField == f.Name {
			if db, ok := durationBounds[b.Type]; ok {
				return &db
			}
		}
	}
	return nil
}

func (w *Wizard) applyBranch(res Resolution) {
	if w.branch == res.Branch {
		return
	}
	w.clearBranch()
	w.branch = res.Branch
	at := w.indexOf(w.def.SelectorStep)
	seq := make([]string, 0, len(w.sequence)+1)
	seq = append(seq, w.sequence[:at+1]...)
	seq = append(seq, res.StepID)
	seq = append(seq, w.sequence[at+1:]...)
	w.sequence = seq
}

func (w *Wizard) clearBranch() {
	if w.branch == "" {
		return
	}
	seq := w.sequence[:0:0]
	for _, id := range w.sequence {
		if st, _ := w.def.step(id); st.Branch == "" {
			seq = append(seq, id)
		}
	}
	w.sequence = seq
	w.branch = ""
	if w.current >= len(w.sequence) {
		w.current = len(w.sequence) - 1
	}
}

func (w *Wizard) indexOf(id string) int {
	for i, s := range w.sequence {
		if s == id {
			return i
		}
	}
	return 0
}
