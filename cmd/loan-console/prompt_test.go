package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-console/internal/common/errors"
	"loan-console/internal/console"
	"loan-console/internal/models"
	"loan-console/internal/wizard"
)

type wizardStepper struct{ w *wizard.Wizard }

func (s wizardStepper) Wizard() *wizard.Wizard { return s.w }
func (s wizardStepper) Render() string         { return "" }
func (s wizardStepper) Next() bool             { return s.w.Advance() == nil }

func TestLoadAnswers_ScalarsBecomeStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("customerId: C1\nloanType: Weekly\nweeklyAmount: 20000\nweeklyRepaymentDate: 2025-07-01\n"), 0o600))

	answers, err := loadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, "20000", answers["weeklyAmount"])
	assert.Equal(t, "2025-07-01", answers["weeklyRepaymentDate"])

	empty, err := loadAnswers("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFiller_BatchReachesBranchStep(t *testing.T) {
	var visited []string
	out := console.NewOutput(&bytes.Buffer{})
	f := &filler{
		answers: map[string]string{
			"customerId": "C1", "loanType": "Monthly",
			"monthlyAmount": "50000", "monthlyInterestRate": "5", "monthlyDuration": "3",
		},
		out: out,
		afterStep: func(id string) error {
			visited = append(visited, id)
			return nil
		},
	}
	w := wizard.MustNew(wizard.LoanApply())

	require.NoError(t, f.fill(wizardStepper{w}))
	assert.True(t, w.CanSubmit())
	assert.Equal(t, models.LoanTypeMonthly, w.Branch())
	assert.Equal(t, []string{"customer", "loan-type"}, visited)
	assert.Equal(t, "3", w.Values()[wizard.KeyDuration])
}

func TestFiller_BatchStopsOnMissingValue(t *testing.T) {
	f := &filler{answers: map[string]string{"loanType": "Weekly"}, out: console.NewOutput(&bytes.Buffer{})}
	w := wizard.MustNew(wizard.LoanApply())

	err := f.fill(wizardStepper{w})
	assert.Equal(t, "customerId", errors.FieldOf(err))
}

func TestFiller_InteractiveRetriesRejectedValue(t *testing.T) {
	var buf bytes.Buffer
	f := &filler{
		answers: map[string]string{"customerId": "C1"},
		in:      bufio.NewReader(strings.NewReader("Daily\nWeekly\n")),
		out:     console.NewOutput(&buf),
	}
	w := wizard.MustNew(wizard.LoanApply())
	s := wizardStepper{w}

	require.NoError(t, f.fillStep(s))
	require.True(t, s.Next())
	require.NoError(t, f.fillStep(s))

	assert.Equal(t, models.LoanTypeWeekly, w.Branch())
	assert.Contains(t, buf.String(), "Loan type")
	assert.Equal(t, "Weekly", f.answers["loanType"])
}

func TestConfirmer(t *testing.T) {
	out := console.NewOutput(&bytes.Buffer{})

	yes := confirmer(bufio.NewReader(strings.NewReader("y\n")), out, false)
	assert.True(t, yes("Proceed?"))

	no := confirmer(bufio.NewReader(strings.NewReader("\n")), out, false)
	assert.False(t, no("Proceed?"))

	eof := confirmer(bufio.NewReader(strings.NewReader("")), out, false)
	assert.False(t, eof("Proceed?"))

	assumed := confirmer(nil, out, true)
	assert.True(t, assumed("Proceed?"))
}
