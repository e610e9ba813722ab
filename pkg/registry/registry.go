// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"loan-console/internal/wizard"
)

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}

// Save writes the catalog as indented JSON, creating the directory.
func Save(cat *Catalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Build describes defs. Each definition is validated first.
func Build(version string, now time.Time, defs ...*wizard.Definition) (*Catalog, error) {
	cat := &Catalog{Version: version, LastUpdated: now.UTC().Format(time.RFC3339)}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("form %s: %w", d.Form, err)
		}
		cat.Forms = append(cat.Forms, describe(d))
	}
	return cat, nil
}

// Builtin describes the forms the console ships with.
func Builtin(version string, now time.Time) (*Catalog, error) {
	return Build(version, now, wizard.CustomerIntake(), wizard.LoanApply())
}

func describe(d *wizard.Definition) Form {
	f := Form{ID: d.Form, SelectorField: d.SelectorField}
	for _, s := range d.Steps {
		st := Step{ID: s.ID, Title: s.Title, Branch: string(s.Branch)}
		for _, fd := range s.Fields {
			key := fd.Key
			if key == "" {
				key = fd.Name
			}
			st.Fields = append(st.Fields, Field{
				Name:     fd.Name,
				Key:      key,
				Label:    fd.Label,
				Kind:     string(fd.Kind),
				Required: fd.Required,
				Options:  fd.Options,
				Pattern:  fd.Pattern,
				Min:      fd.Min,
				Max:      fd.Max,
			})
		}
		f.Steps = append(f.Steps, st)
	}
	for _, b := range d.Branches {
		bounds, _ := wizard.BoundsFor(b.Type)
		f.Branches = append(f.Branches, Branch{
			LoanType:      string(b.Type),
			StepID:        b.StepID,
			DurationField: b.DurationField,
			DurationMin:   bounds.Min,
			DurationMax:   bounds.Max,
			Unit:          bounds.Unit,
		})
	}
	return f
}

// Drift lists the differences between a stored catalog and the current one,
// one line per form, step or branch that changed. Version and timestamp are
// ignored.
func Drift(stored, current *Catalog) []string {
	var out []string
	have := make(map[string]Form, len(stored.Forms))
	for _, f := range stored.Forms {
		have[f.ID] = f
	}

	for _, f := range current.Forms {
		old, ok := have[f.ID]
		delete(have, f.ID)
		if !ok {
			out = append(out, fmt.Sprintf("form %s: missing from catalog", f.ID))
			continue
		}
		out = append(out, stepDrift(f.ID, old.Steps, f.Steps)...)
		if !reflect.DeepEqual(old.Branches, f.Branches) {
			out = append(out, fmt.Sprintf("form %s: branches changed", f.ID))
		}
		if old.SelectorField != f.SelectorField {
			out = append(out, fmt.Sprintf("form %s: selector field %q, now %q", f.ID, old.SelectorField, f.SelectorField))
		}
	}
	for id := range have {
		out = append(out, fmt.Sprintf("form %s: no longer defined", id))
	}
	sort.Strings(out)
	return out
}

func stepDrift(form string, stored, current []Step) []string {
	var out []string
	have := make(map[string]Step, len(stored))
	for _, s := range stored {
		have[s.ID] = s
	}
	for _, s := range current {
		old, ok := have[s.ID]
		delete(have, s.ID)
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("form %s: step %s added", form, s.ID))
		case !reflect.DeepEqual(old, s):
			out = append(out, fmt.Sprintf("form %s: step %s changed", form, s.ID))
		}
	}
	for id := range have {
		out = append(out, fmt.Sprintf("form %s: step %s removed", form, id))
	}
	return out
}
