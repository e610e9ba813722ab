// Package console wires the wizard, assembler, selector and gateway into
// the operator screens. Each screen catches errors at its action boundary,
// logs them and shows exactly one message.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/gateway"
	"loan-console/internal/render"
	"loan-console/internal/repayment"
	"loan-console/internal/review"
)

// Backend is every backend call the screens make.
type Backend interface {
	repayment.PlanSource
	repayment.PaymentLogger
	review.Backend
	CreateCustomer(ctx context.Context, payload interface{}) (*gateway.Envelope, error)
	ApplyLoan(ctx context.Context, payload interface{}) (*gateway.Envelope, error)
}

// Output shows notices and screens to the operator.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Notify prints a one-line notice.
func (o *Output) Notify(level render.Level, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, render.Notice(level, msg))
}

// Show prints a rendered block.
func (o *Output) Show(block string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, block)
}

// Prompt prints text with no line break for the operator to answer.
func (o *Output) Prompt(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprint(o.w, text)
}

// Unauthorized is the gateway's notify hook.
func (o *Output) Unauthorized(msg string) {
	o.Notify(render.LevelError, msg)
}

// report shows err once. Unauthorized errors were already announced by the
// gateway's teardown and stale responses belong to a form the operator has
// left, so neither is shown again.
func report(out *Output, log logger.Logger, prefix string, err error) {
	se := errors.Normalize(err)
	if se == nil {
		return
	}

	fields := map[string]interface{}{
		"code":     se.Code,
		"category": errors.GetErrorCategory(se.Code),
	}
	if field, ok := se.Metadata["field"]; ok {
		fields["field"] = field
	}

	switch se.Code {
	case errors.ErrCodeUnauthorized:
		log.Warn("action stopped by unauthorized session", fields)
		return
	case errors.ErrCodeStaleResponse:
		log.Debug("stale response discarded", fields)
		return
	case errors.ErrCodeValidationFailed, errors.ErrCodeRequestInFlight:
		log.Info("action rejected", fields)
		out.Notify(render.LevelWarning, se.UserMessage())
		return
	}

	fields["error"] = se.Details
	log.Error("action failed", fields)
	msg := se.UserMessage()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	out.Notify(render.LevelError, msg)
}

// createdID pulls the id of a created record out of a response payload.
func createdID(env *gateway.Envelope) string {
	var created struct {
		ID string `json:"id"`
	}
	if env == nil || env.Decode(&created) != nil {
		return ""
	}
	return created.ID
}

// customerName resolves a customer's display name the way the loan screens
// show it.
func customerName(ctx context.Context, b Backend, id string) (string, error) {
	c, err := b.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) || errors.Is(err, errors.ErrCodeApplicationError) {
			return "Customer Not Found", nil
		}
		return "", err
	}
	if c == nil || c.FullName == "" {
		return "Customer Not Found", nil
	}
	return c.FullName, nil
}
