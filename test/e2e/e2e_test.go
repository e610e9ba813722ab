// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-console/internal/common/config"
	"loan-console/internal/common/errors"
	commonhttp "loan-console/internal/common/http"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/money"
	"loan-console/internal/common/session"
	"loan-console/internal/console"
	"loan-console/internal/gateway"
	"loan-console/internal/intake"
	"loan-console/internal/models"
)

const (
	operatorEmail    = "officer@example.com"
	operatorPassword = "s3cret"
	issuedToken      = "tok-e2e"
)

// backend is an in-memory loan-management API speaking the envelope
// protocol. It only knows the handful of records the journey creates.
type backend struct {
	mu        sync.Mutex
	revoked   bool
	customers map[string]map[string]interface{}
	loans     map[string]*models.Loan
	plans     map[string][]models.Installment
	logs      map[string]*models.PaymentLog
	seq       int
	hits      atomic.Int32
}

func newBackend() *backend {
	return &backend{
		customers: map[string]map[string]interface{}{},
		loans:     map[string]*models.Loan{},
		plans:     map[string][]models.Installment{},
		logs:      map[string]*models.PaymentLog{},
	}
}

func (b *backend) next(prefix string) string {
	b.seq++
	return prefix + strconv.Itoa(b.seq)
}

func envelope(w http.ResponseWriter, payload interface{}, message string) {
	body := map[string]interface{}{"isSuccessful": true, "responseObject": payload, "message": nil}
	if message != "" {
		body["message"] = message
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (b *backend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/Auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != operatorEmail || req.Password != operatorPassword {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
			return
		}
		b.revoked = false
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"token":%q}`, issuedToken)
	})

	mux.HandleFunc("POST /api/customer", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := b.next("C-")
		b.customers[id] = body
		envelope(w, map[string]string{"id": id}, "")
	})

	mux.HandleFunc("GET /api/customer/{id}", func(w http.ResponseWriter, r *http.Request) {
		c, ok := b.customers[r.PathValue("id")]
		if !ok {
			envelope(w, nil, "")
			return
		}
		envelope(w, map[string]interface{}{"id": r.PathValue("id"), "fullName": c["fullName"]}, "")
	})

	mux.HandleFunc("POST /api/customer/loan", func(w http.ResponseWriter, r *http.Request) {
		var app intake.LoanApplication
		if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, `{"errors":[%q]}`, err.Error())
			return
		}
		id := b.next("L-")
		b.loans[id] = &models.Loan{
			ID:              id,
			CustomerID:      app.CustomerID,
			LoanGroup:       string(app.LoanPreference.LoanGroup),
			Amount:          app.LoanPreference.Amount,
			DurationInWeeks: app.LoanPreference.DurationInWeeks,
			Status:          models.LoanStatusPendingApproval,
		}
		envelope(w, nil, "")
	})

	mux.HandleFunc("GET /api/customer/loan/pagenumber/{page}/pagesize/{size}", func(w http.ResponseWriter, r *http.Request) {
		var page models.Page[models.Loan]
		for _, l := range b.loans {
			if r.URL.Query().Get("status") == "" || l.Status == r.URL.Query().Get("status") {
				page.Items = append(page.Items, *l)
			}
		}
		page.TotalCount = len(page.Items)
		envelope(w, page, "")
	})

	mux.HandleFunc("GET /api/customer/loan/{id}", func(w http.ResponseWriter, r *http.Request) {
		l, ok := b.loans[r.PathValue("id")]
		if !ok {
			envelope(w, nil, "")
			return
		}
		envelope(w, l, "")
	})

	mux.HandleFunc("GET /api/customer/loan/{id}/paymentplan", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, b.plans[r.PathValue("id")], "")
	})

	mux.HandleFunc("POST /api/customer/loan/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		l, ok := b.loans[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Loan not found"}`))
			return
		}
		switch r.PathValue("action") {
		case "approve":
			l.Status = "Active"
			b.plans[l.ID] = schedule(l)
		case "decline":
			l.Status = "Declined"
		case "defaulted":
			l.Status = "Defaulted"
		}
		envelope(w, nil, "")
	})

	mux.HandleFunc("POST /api/paymentlog", func(w http.ResponseWriter, r *http.Request) {
		var req models.PaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		id := b.next("P-")
		b.logs[id] = &models.PaymentLog{PaymentLogID: id, LoanID: req.LoanID, AmountPaid: req.Amount, Status: models.PaymentStatusPendingReview}
		envelope(w, nil, "Payment recorded for review")
	})

	mux.HandleFunc("GET /api/paymentlog/pagenumber/{page}/pagesize/{size}", func(w http.ResponseWriter, r *http.Request) {
		var page models.Page[models.PaymentLog]
		for _, p := range b.logs {
			if p.Status == r.URL.Query().Get("status") {
				page.Items = append(page.Items, *p)
			}
		}
		page.TotalCount = len(page.Items)
		envelope(w, page, "")
	})

	mux.HandleFunc("POST /api/paymentlog/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := b.logs[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.PathValue("action") == "approve" {
			p.Status = "Approved"
		} else {
			p.Status = "Declined"
		}
		envelope(w, nil, "")
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.URL.Path != "/api/Auth/login" && (b.revoked || r.Header.Get("Authorization") != "Bearer "+issuedToken) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// view runs fn while holding the backend lock.
func (b *backend) view(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

func schedule(l *models.Loan) []models.Installment {
	per := money.New(l.Amount.Decimal().DivRound(decimal.NewFromInt(int64(l.DurationInWeeks)), 2))
	start := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	plan := make([]models.Installment, 0, l.DurationInWeeks)
	for i := l.DurationInWeeks - 1; i >= 0; i-- {
		plan = append(plan, models.Installment{
			ID:        fmt.Sprintf("%s-i%d", l.ID, i+1),
			DueDate:   models.Date{Time: start.AddDate(0, 0, 7*i)},
			AmountDue: per,
		})
	}
	return plan
}

type harness struct {
	backend  *backend
	client   *gateway.Client
	store    session.Store
	out      *console.Output
	screen   *bytes.Buffer
	notified atomic.Int32
	log      logger.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	mr := miniredis.RunT(t)
	store, closeStore, err := session.Open(context.Background(), config.SessionConfig{
		Redis:     config.RedisConfig{Address: mr.Addr()},
		KeyPrefix: "e2e",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	b := newBackend()
	srv := httptest.NewServer(b.routes())
	t.Cleanup(srv.Close)

	h := &harness{backend: b, store: store, screen: &bytes.Buffer{}, log: logger.NewTestLogger(t)}
	h.out = console.NewOutput(h.screen)
	h.client, err = gateway.New(gateway.Options{
		BaseURL:       srv.URL + "/api",
		HTTP:          commonhttp.NewClient(5*time.Second, "loan-console/e2e"),
		Session:       store,
		Logger:        h.log,
		RedirectDelay: time.Millisecond,
		Notify: func(msg string) {
			h.notified.Add(1)
			h.out.Unauthorized(msg)
		},
		Redirect: func() {},
	})
	require.NoError(t, err)
	return h
}

func fillStep(t *testing.T, next func() bool, set func(string, string) error, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, set(k, v), k)
	}
	require.True(t, next(), "advance past %v", values)
}

func TestFullJourney(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 1. Sign in; the token lands in Redis.
	_, err := h.client.Login(ctx, "/Auth/login", operatorEmail, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeApplicationError))
	assert.Zero(t, h.notified.Load())

	_, err = h.client.Login(ctx, "/Auth/login", operatorEmail, operatorPassword)
	require.NoError(t, err)
	token, err := h.store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, issuedToken, token)

	// 2. Customer intake with a monthly loan preference of two months.
	assembler := intake.NewAssembler("NGN", h.log)
	in := console.NewIntakeScreen(h.client, assembler, h.out, h.log)
	w := in.Wizard()
	fillStep(t, in.Next, w.Set, map[string]string{"fullName": "Ada Obi", "dob": "1990-04-12", "gender": "Female", "maritalStatus": "Single", "address": "12 Marina, Lagos"})
	fillStep(t, in.Next, w.Set, map[string]string{"email": "ada@example.com", "phone": "08031234567", "employment_status": "Employed", "income": "150000", "idType": "NIN", "idNumber": "A123", "bvn": "12345678901"})
	fillStep(t, in.Next, w.Set, map[string]string{"nextKinName": "Chidi Obi", "nextKinRelation": "Brother", "nextKinPhone": "08039876543", "guarantorIdType": "NIN", "guarantorIdNumber": "B456"})
	fillStep(t, in.Next, w.Set, map[string]string{"loanType": "Monthly"})
	require.NoError(t, w.Set("monthlyAmount", "40000"))
	require.NoError(t, w.Set("monthlyInterestRate", "5"))
	require.NoError(t, w.Set("monthlyDuration", "2"))

	customerID, err := in.Submit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, customerID)
	h.backend.view(func() {
		pref := h.backend.customers[customerID]["loanPreference"].(map[string]interface{})
		assert.Equal(t, float64(8), pref["durationInWeeks"])
		assert.Equal(t, "Monthly", pref["loanGroup"])
	})

	// 3. Standalone weekly application for the same customer.
	apply := console.NewApplyScreen(h.client, assembler, h.out, h.log)
	aw := apply.Wizard()
	require.NoError(t, aw.Set("customerId", customerID))
	require.NoError(t, apply.LookupCustomer(ctx))
	assert.Equal(t, "Ada Obi", apply.CustomerName())
	require.True(t, apply.Next())
	fillStep(t, apply.Next, aw.Set, map[string]string{"loanType": "Weekly"})
	require.NoError(t, aw.Set("weeklyAmount", "4000"))
	require.NoError(t, aw.Set("weeklyInterestRate", "4"))
	require.NoError(t, aw.Set("weeklyDuration", "4"))

	msg, err := apply.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Your application has been submitted for review.", msg)

	// 4. Approve the pending loan.
	review := console.NewReviewScreen(h.client, 10, func(string) bool { return true }, h.out, h.log)
	require.NoError(t, review.PendingLoans(ctx, 1))
	var loanID string
	h.backend.view(func() {
		for id, l := range h.backend.loans {
			if l.LoanGroup == "Weekly" {
				loanID = id
			}
		}
	})
	require.NotEmpty(t, loanID)
	assert.Contains(t, h.screen.String(), loanID)

	done, err := review.Decide(ctx, "loan", "approve", loanID)
	require.NoError(t, err)
	assert.True(t, done)
	h.backend.view(func() { assert.Equal(t, "Active", h.backend.loans[loanID].Status) })

	// 5. Log a payment for the earliest installment.
	pay := console.NewPaymentScreen(h.client, "NGN", true, h.out, h.log)
	require.NoError(t, pay.Load(ctx, loanID))
	snap := pay.Selector().Snapshot()
	require.Len(t, snap.Installments, 4)
	assert.Equal(t, loanID+"-i1", snap.Selection.InstallmentID)
	assert.Equal(t, "Ada Obi", snap.CustomerName)

	receipt, err := pay.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Payment recorded for review", receipt.Message)
	assert.Equal(t, "1000", receipt.Request.Amount.String())

	// 6. Approve the payment log.
	require.NoError(t, review.PendingPayments(ctx, 1))
	var logID string
	h.backend.view(func() {
		require.Len(t, h.backend.logs, 1)
		for id := range h.backend.logs {
			logID = id
		}
	})
	done, err = review.Decide(ctx, "payment", "approve", logID)
	require.NoError(t, err)
	assert.True(t, done)
	h.backend.view(func() { assert.Equal(t, "Approved", h.backend.logs[logID].Status) })
	assert.Contains(t, h.screen.String(), "Payment accepted and system updated.")
}

func TestSessionRevoked_TearsDownOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Login(ctx, "/Auth/login", operatorEmail, operatorPassword)
	require.NoError(t, err)

	h.backend.view(func() { h.backend.revoked = true })

	review := console.NewReviewScreen(h.client, 10, nil, h.out, h.log)
	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = h.client.ListLoans(ctx, 1, 10, models.LoanStatusPendingApproval)
			} else {
				errs[i] = review.PendingPayments(ctx, 1)
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized), "got %v", err)
	}
	assert.Equal(t, int32(1), h.notified.Load())
	assert.Equal(t, 1, strings.Count(h.screen.String(), "\n"))

	token, err := h.store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// With no token left, calls fail locally without another notice.
	before := h.backend.hits.Load()
	_, err = h.client.GetLoan(ctx, "L-1")
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
	assert.Equal(t, before, h.backend.hits.Load())
	assert.Equal(t, int32(1), h.notified.Load())

	// Signing in again restores access.
	_, err = h.client.Login(ctx, "/Auth/login", operatorEmail, operatorPassword)
	require.NoError(t, err)
	_, err = h.client.ListLoans(ctx, 1, 10, "")
	assert.NoError(t, err)
}
