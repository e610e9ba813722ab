package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"loan-console/internal/common/errors"
	"loan-console/internal/console"
	"loan-console/internal/render"
	"loan-console/internal/wizard"
)

// stepper is the part of a wizard screen the form filler drives.
type stepper interface {
	Wizard() *wizard.Wizard
	Render() string
	Next() bool
}

// filler enters values into a wizard, from an answers file first and then,
// when a reader is set, by asking the operator.
type filler struct {
	answers map[string]string
	in      *bufio.Reader
	out     *console.Output
	// afterStep runs once a step has been left successfully.
	afterStep func(stepID string) error
}

// loadAnswers reads a flat YAML map of field name to value.
func loadAnswers(path string) (map[string]string, error) {
	answers := map[string]string{}
	if path == "" {
		return answers, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}
	return answers, nil
}

// fill walks s up to its final step and enters that step's fields.
func (f *filler) fill(s stepper) error {
	w := s.Wizard()
	for !w.CanSubmit() {
		if err := f.fillStep(s); err != nil {
			return err
		}
		id := w.View().Active().ID
		if !s.Next() {
			err := w.ValidateCurrent()
			if f.in == nil {
				return err
			}
			delete(f.answers, errors.FieldOf(err))
			continue
		}
		if f.afterStep != nil {
			if err := f.afterStep(id); err != nil {
				return err
			}
		}
	}
	return f.fillStep(s)
}

func (f *filler) fillStep(s stepper) error {
	w := s.Wizard()
	if f.answers == nil {
		f.answers = map[string]string{}
	}
	if f.in != nil {
		f.out.Show(s.Render())
	}
	for _, fv := range w.View().Active().Fields {
		for {
			value, ok := f.answers[fv.Name]
			if !ok {
				if f.in == nil {
					break
				}
				var err error
				if value, err = f.ask(fv); err != nil {
					return err
				}
			}
			err := w.Set(fv.Name, value)
			if err == nil {
				f.answers[fv.Name] = value
				break
			}
			f.out.Notify(render.LevelWarning, errors.Normalize(err).UserMessage())
			if f.in == nil {
				return err
			}
			delete(f.answers, fv.Name)
		}
	}
	return nil
}

func (f *filler) ask(fv wizard.FieldView) (string, error) {
	hint := fv.Placeholder
	if hint == "" && len(fv.Options) > 0 {
		hint = strings.Join(fv.Options, "/")
	}
	prompt := fv.Label
	if hint != "" {
		prompt += " (" + hint + ")"
	}
	if fv.Value != "" {
		prompt += " [" + fv.Value + "]"
	}

	line, err := readLine(f.in, f.out, prompt+": ")
	if err != nil {
		return "", err
	}
	if line == "" {
		return fv.Value, nil
	}
	return line, nil
}

func readLine(in *bufio.Reader, out *console.Output, prompt string) (string, error) {
	out.Prompt(prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirmer asks yes/no questions on in, or always agrees when assumeYes.
func confirmer(in *bufio.Reader, out *console.Output, assumeYes bool) console.Confirm {
	return func(prompt string) bool {
		if assumeYes {
			return true
		}
		answer, err := readLine(in, out, prompt+" [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	}
}
