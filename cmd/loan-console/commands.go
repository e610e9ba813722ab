package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/session"
	"loan-console/internal/console"
	"loan-console/internal/intake"
	"loan-console/internal/render"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":     runLogin,
	"logout":    runLogout,
	"whoami":    runWhoami,
	"intake":    runIntake,
	"apply":     runApply,
	"pay":       runPay,
	"payments":  runPayments,
	"loans":     runLoans,
	"customers": runCustomers,
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("loan-console "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = readLine(a.in, a.out, "Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = readLine(a.in, a.out, "Password: "); err != nil {
			return err
		}
	}

	creds, err := a.gateway.Login(ctx, a.cfg.API.LoginPath, *email, *password)
	if err != nil {
		a.out.Notify(render.LevelError, "Login failed: "+errors.Normalize(err).UserMessage())
		return err
	}
	a.log.Info("signed in", map[string]interface{}{"email": *email, "refresh": creds.RefreshToken != ""})
	a.out.Notify(render.LevelSuccess, "Signed in.")
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.gateway.Logout(ctx); err != nil {
		a.out.Notify(render.LevelError, "Logout failed: "+errors.Normalize(err).UserMessage())
		return err
	}
	a.out.Notify(render.LevelSuccess, "Signed out.")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	token, err := a.store.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		a.out.Notify(render.LevelWarning, "Not signed in.")
		return nil
	}

	claims, err := session.Inspect(token)
	if err != nil {
		a.out.Notify(render.LevelWarning, "The stored token could not be read; sign in again.")
		return err
	}
	expires := ""
	if !claims.ExpiresAt.IsZero() {
		expires = claims.ExpiresAt.Local().Format(time.RFC1123)
	}
	a.out.Show(render.Session(claims.Subject, claims.Issuer, expires, claims.Expired(time.Now())))
	return nil
}

// formFlags are shared by the wizard commands.
func formFlags(name string) (*flag.FlagSet, *string, *bool) {
	fs := newFlags(name)
	answers := fs.String("answers", "", "YAML file of field values")
	batch := fs.Bool("batch", false, "do not prompt; fail on the first missing or invalid value")
	return fs, answers, batch
}

func (a *app) newFiller(path string, batch bool) (*filler, error) {
	answers, err := loadAnswers(path)
	if err != nil {
		return nil, err
	}
	f := &filler{answers: answers, out: a.out}
	if !batch {
		f.in = a.in
	}
	return f, nil
}

func runIntake(ctx context.Context, a *app, args []string) error {
	fs, answers, batch := formFlags("intake")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := a.newFiller(*answers, *batch)
	if err != nil {
		return err
	}

	screen := console.NewIntakeScreen(a.gateway, intake.NewAssembler(a.cfg.Intake.CurrencyCode, a.log), a.out, a.log)
	if err := f.fill(screen); err != nil {
		return err
	}
	id, err := screen.Submit(ctx)
	if err != nil {
		return err
	}
	if id != "" {
		a.out.Show("Customer ID: " + id)
	}
	return nil
}

func runApply(ctx context.Context, a *app, args []string) error {
	fs, answers, batch := formFlags("apply")
	customerID := fs.String("customer", "", "customer ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := a.newFiller(*answers, *batch)
	if err != nil {
		return err
	}
	if *customerID != "" {
		f.answers["customerId"] = *customerID
	}

	screen := console.NewApplyScreen(a.gateway, intake.NewAssembler(a.cfg.Intake.CurrencyCode, a.log), a.out, a.log)
	f.afterStep = func(stepID string) error {
		if stepID != "customer" {
			return nil
		}
		if err := screen.LookupCustomer(ctx); err != nil {
			return err
		}
		a.out.Show("Customer: " + screen.CustomerName())
		return nil
	}
	if err := f.fill(screen); err != nil {
		return err
	}
	_, err = screen.Submit(ctx)
	return err
}

func runPay(ctx context.Context, a *app, args []string) error {
	fs := newFlags("pay")
	loanID := fs.String("loan", "", "loan ID")
	installment := fs.String("installment", "", "installment ID (prompted when empty)")
	assumeYes := fs.Bool("yes", false, "log the payment without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	screen := console.NewPaymentScreen(a.gateway, a.cfg.Intake.CurrencyCode, a.cfg.Payments.PreselectFirstDue, a.out, a.log)
	if *loanID == "" {
		var err error
		if *loanID, err = readLine(a.in, a.out, "Loan ID: "); err != nil {
			return err
		}
	}
	err := screen.Load(ctx, *loanID)
	a.out.Show(screen.Render())
	if err != nil {
		return err
	}
	if len(screen.Selector().Snapshot().Installments) == 0 {
		return nil
	}

	if *installment == "" && screen.Selector().Snapshot().Selection == nil {
		if *installment, err = readLine(a.in, a.out, "Installment to pay: "); err != nil {
			return err
		}
	}
	if *installment != "" {
		if err := screen.Select(*installment); err != nil {
			return err
		}
	}

	// Without a selection Submit refuses with a validation message and
	// sends nothing.
	if sel := screen.Selector().Snapshot().Selection; sel != nil {
		prompt := fmt.Sprintf("Log a payment of %s for installment %s?", sel.Amount.Format(a.cfg.Intake.CurrencyCode), sel.InstallmentID)
		if !confirmer(a.in, a.out, *assumeYes)(prompt) {
			return nil
		}
	}
	_, err = screen.Submit(ctx)
	return err
}

func runPayments(ctx context.Context, a *app, args []string) error {
	return runReview(ctx, a, "payment", args)
}

func runLoans(ctx context.Context, a *app, args []string) error {
	return runReview(ctx, a, "loan", args)
}

// runReview handles "<kind>s list|pending [-page n]",
// "loans list -customer <id>" and "<kind>s <verb> [-yes] <id>".
func runReview(ctx context.Context, a *app, kind string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%ss: missing action", kind)
	}
	verb, rest := args[0], args[1:]

	fs := newFlags(kind + "s " + verb)
	page := fs.Int("page", 1, "page number")
	assumeYes := fs.Bool("yes", false, "do not ask for confirmation")
	customerID := ""
	if kind == "loan" {
		fs.StringVar(&customerID, "customer", "", "list this customer's loans instead of pending ones")
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	screen := console.NewReviewScreen(a.gateway, a.cfg.Payments.PageSize, confirmer(a.in, a.out, *assumeYes), a.out, a.log)
	switch verb {
	case "list", "pending":
		if customerID != "" {
			_, err := console.NewCustomerScreen(a.gateway, a.cfg.Payments.PageSize, a.out, a.log).Loans(ctx, customerID, *page)
			return err
		}
		if kind == "payment" {
			return screen.PendingPayments(ctx, *page)
		}
		return screen.PendingLoans(ctx, *page)
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("%ss %s: expected one ID", kind, verb)
	}
	_, err := screen.Decide(ctx, kind, verb, strings.TrimSpace(fs.Arg(0)))
	return err
}

// runCustomers handles "customers search [-name text] [-page n]" and
// "customers loans [-page n] <id>".
func runCustomers(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("customers: missing action")
	}
	verb, rest := args[0], args[1:]

	fs := newFlags("customers " + verb)
	page := fs.Int("page", 1, "page number")
	name := fs.String("name", "", "full name, or part of it")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	screen := console.NewCustomerScreen(a.gateway, a.cfg.Payments.PageSize, a.out, a.log)
	switch verb {
	case "search", "list":
		_, err := screen.Search(ctx, *name, *page)
		return err
	case "loans":
		if fs.NArg() != 1 {
			return fmt.Errorf("customers loans: expected one customer ID")
		}
		_, err := screen.Loans(ctx, fs.Arg(0), *page)
		return err
	}
	return fmt.Errorf("customers: unknown action %q", verb)
}
