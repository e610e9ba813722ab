package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"loan-console/internal/models"
	"loan-console/internal/repayment"
	"loan-console/internal/wizard"
)

const progressWidth = 20

// Progress draws a fixed-width bar for a 0..1 fraction.
func Progress(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*progressWidth + 0.5)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressWidth-filled)
	return fmt.Sprintf("[%s] %3.0f%%", bar, fraction*100)
}

// Wizard draws the visible step of a wizard view.
func Wizard(v wizard.View) string {
	active := v.Active()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Step %d of %d: %s", v.Current+1, v.Total, active.Title)),
		Progress(v.Progress()),
		"",
	}
	for _, f := range active.Fields {
		lines = append(lines, fieldLine(f))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func fieldLine(f wizard.FieldView) string {
	label := f.Label
	if f.Required {
		label += requiredStyle.Render(" *")
	}
	value := f.Value
	if value == "" {
		hint := f.Placeholder
		if hint == "" && len(f.Options) > 0 {
			hint = strings.Join(f.Options, " / ")
		}
		value = mutedStyle.Render(hint)
	}
	return labelStyle.Render(label) + value
}

// Plan draws a loaded payment plan. Paid installments are shown but marked
// as not selectable.
func Plan(s repayment.Snapshot) string {
	header := []string{titleStyle.Render("Payment Plan")}
	if s.Loan.ID != "" {
		header = append(header,
			fmt.Sprintf("Loan: %s  Type: %s  Amount: %s", s.Loan.ID, s.Loan.LoanGroup, s.Loan.Amount.StringFixed()),
			fmt.Sprintf("Customer: %s", s.CustomerName),
		)
	}
	if s.Message != "" {
		level := LevelInfo
		if s.State == repayment.StateFailed {
			level = LevelError
		}
		return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append(header, "", Notice(level, s.Message))...))
	}

	rows := []string{fmt.Sprintf("%-4s %-24s %-12s %-14s %s", "", "Installment", "Due date", "Amount", "Status")}
	for _, inst := range s.Installments {
		marker := "( )"
		status := "Due"
		style := lipgloss.NewStyle()
		switch {
		case inst.IsPaid:
			marker = " - "
			status = "Paid"
			style = mutedStyle
		case s.Selection != nil && s.Selection.InstallmentID == inst.ID:
			marker = "(x)"
			style = selectedStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%-4s %-24s %-12s %-14s %s",
			marker, orNA(inst.ID), inst.DueDate.Display(), inst.AmountDue.StringFixed(), status)))
	}
	if s.Selection != nil {
		rows = append(rows, "", fmt.Sprintf("Amount to log: %s", s.Selection.Amount.StringFixed()))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append(append(header, ""), rows...)...))
}

// PaymentLogs draws a page of payment logs.
func PaymentLogs(page models.Page[models.PaymentLog], current, pageSize int) string {
	if len(page.Items) == 0 {
		return mutedStyle.Render("No pending payments found.")
	}
	rows := []string{fmt.Sprintf("%-38s %-38s %-14s %-12s %s", "Payment log", "Loan", "Amount", "Logged", "Status")}
	for _, p := range page.Items {
		rows = append(rows, fmt.Sprintf("%-38s %-38s %-14s %-12s %s",
			orNA(p.PaymentLogID), orNA(p.LoanID), p.AmountPaid.StringFixed(), p.DateLogged.Display(), p.Status))
	}
	rows = append(rows, pager(current, page.TotalPages(pageSize)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Loans draws a page of loans awaiting approval.
func Loans(page models.Page[models.Loan], current, pageSize int) string {
	return LoanList(page, current, pageSize, "No loans pending approval found.")
}

// LoanList draws a page of loans, or empty when there are none.
func LoanList(page models.Page[models.Loan], current, pageSize int, empty string) string {
	if len(page.Items) == 0 {
		return mutedStyle.Render(empty)
	}
	rows := []string{fmt.Sprintf("%-38s %-38s %-8s %-14s %-6s %s", "Loan", "Customer", "Type", "Amount", "Weeks", "Status")}
	for _, l := range page.Items {
		rows = append(rows, fmt.Sprintf("%-38s %-38s %-8s %-14s %-6d %s",
			orNA(l.ID), orNA(l.CustomerID), l.LoanGroup, l.Amount.StringFixed(), l.DurationInWeeks, l.Status))
	}
	rows = append(rows, pager(current, page.TotalPages(pageSize)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Customers draws a page of customer search results.
func Customers(page models.Page[models.Customer], current, pageSize int) string {
	if len(page.Items) == 0 {
		return mutedStyle.Render("No customers found.")
	}
	rows := []string{fmt.Sprintf("%-38s %-30s %-30s %s", "Customer", "Name", "Email", "Phone")}
	for _, c := range page.Items {
		rows = append(rows, fmt.Sprintf("%-38s %-30s %-30s %s",
			orNA(c.ID), orNA(c.FullName), orNA(c.Email), orNA(c.PhoneNumber)))
	}
	rows = append(rows, pager(current, page.TotalPages(pageSize)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Session draws the holder of the current token.
func Session(subject, issuer, expires string, expired bool) string {
	state := Notice(LevelSuccess, "active")
	if expired {
		state = Notice(LevelWarning, "expired")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Signed in as")+orNA(subject),
		labelStyle.Render("Issuer")+orNA(issuer),
		labelStyle.Render("Expires")+orNA(expires),
		labelStyle.Render("Session")+state,
	)
}

func pager(current, total int) string {
	if total <= 1 {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("Page %d of %d", current, total))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
