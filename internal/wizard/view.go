package wizard

import "loan-console/internal/models"

// FieldView is a field as it should be rendered right now.
type FieldView struct {
	Name        string
	Label       string
	Kind        FieldKind
	Value       string
	Required    bool
	Options     []string
	Placeholder string
	Min         *float64
	Max         *float64
}

// StepView is one step of the sequence; only the active one is Visible.
type StepView struct {
	ID      string
	Title   string
	Visible bool
	Fields  []FieldView
}

// View is a snapshot of the wizard for rendering.
type View struct {
	Form    string
	Current int
	Total   int
	Branch  models.LoanType
	Steps   []StepView
}

// Progress is the completed fraction, counting the active step.
func (v View) Progress() float64 {
	if v.Total == 0 {
		return 0
	}
	return float64(v.Current+1) / float64(v.Total)
}

// Active returns the visible step.
func (v View) Active() StepView {
	for _, s := range v.Steps {
		if s.Visible {
			return s
		}
	}
	return StepView{}
}

// View returns the current rendering snapshot. It does not change state.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(w.def.baseSequence())
	if len(w.def.Branches) > 0 {
		total++
	}
	v := View{
		Form:    w.def.Form,
		Current: w.current,
		Total:   total,
		Branch:  w.branch,
		Steps:   make([]StepView, 0, len(w.sequence)),
	}
	for i, id := range w.sequence {
		st, _ := w.def.step(id)
		sv := StepView{ID: st.ID, Title: st.Title, Visible: i == w.current}
		for _, f := range st.Fields {
			fv := FieldView{
				Name:        f.Name,
				Label:       f.Label,
				Kind:        f.Kind,
				Value:       w.values[f.Name],
				Required:    w.required(f, st),
				Options:     f.Options,
				Placeholder: f.Placeholder,
				Min:         f.Min,
				Max:         f.Max,
			}
			if b := w.boundsFor(f, st); b != nil {
				fv.Min, fv.Max = bound(float64(b.Min)), bound(float64(b.Max))
				fv.Placeholder = b.Placeholder()
			}
			sv.Fields = append(sv.Fields, fv)
		}
		v.Steps = append(v.Steps, sv)
	}
	return v
}
