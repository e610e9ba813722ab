// Package gateway is the single boundary to the loan-management REST
// backend. Every call carries the stored bearer token; a 401 tears the
// session down exactly once no matter how many calls observe it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"loan-console/internal/common/errors"
	commonhttp "loan-console/internal/common/http"
	"loan-console/internal/common/logger"
	"loan-console/internal/common/metrics"
	"loan-console/internal/common/observability"
	"loan-console/internal/common/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL       string
	HTTP          commonhttp.Doer
	Session       session.Store
	Logger        logger.Logger
	Observability *observability.Observability
	// RedirectDelay is how long after the unauthorized notification the
	// redirect to the login entry point runs.
	RedirectDelay time.Duration
	// Notify surfaces the unauthorized message to the operator.
	Notify func(message string)
	// Redirect sends the operator to the login entry point.
	Redirect func()
}

type Client struct {
	baseURL       string
	http          commonhttp.Doer
	session       session.Store
	log           logger.Logger
	obs           *observability.Observability
	tracer        trace.Tracer
	redirectDelay time.Duration
	notify        func(string)
	redirect      func()

	// anonymousTeardown latches once the session is known to be gone, so
	// calls made with no token do not repeat the notification.
	anonymousTeardown atomic.Bool
	teardowns         atomic.Int64
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, errors.NewConfigError("gateway base URL is required")
	}
	if opts.Session == nil {
		return nil, errors.NewConfigError("gateway session store is required")
	}

	c := &Client{
		baseURL:       base,
		http:          opts.HTTP,
		session:       opts.Session,
		log:           opts.Logger,
		obs:           opts.Observability,
		redirectDelay: opts.RedirectDelay,
		notify:        opts.Notify,
		redirect:      opts.Redirect,
	}
	if c.http == nil {
		c.http = commonhttp.NewClient(30*time.Second, "loan-console")
	}
	if c.log == nil {
		c.log = logger.NewNoOpLogger()
	}
	c.log = c.log.Named("gateway")
	c.tracer = c.obs.Tracer()
	return c, nil
}

// Call describes one backend request.
type Call struct {
	// Name labels the call in logs, spans and metrics, e.g. "paymentlog.create".
	Name   string
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Anonymous skips the bearer token; only login uses it.
	Anonymous bool
}

// Request performs call and returns the decoded envelope of a 2xx response.
// The envelope is returned as-is; use Fetch to also branch on IsSuccessful.
func (c *Client) Request(ctx context.Context, call Call) (*Envelope, error) {
	raw, err := c.roundTrip(ctx, call)
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if len(bytes.TrimSpace(raw)) == 0 {
		env.IsSuccessful = true
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, errors.NewDecodeError(err)
	}
	return env, nil
}

// Fetch performs call and decodes the envelope payload into out.
func (c *Client) Fetch(ctx context.Context, call Call, out interface{}) error {
	env, err := c.Request(ctx, call)
	if err != nil {
		return err
	}
	return env.Decode(out)
}

func (c *Client) roundTrip(ctx context.Context, call Call) (_ []byte, err error) {
	name := call.Name
	if name == "" {
		name = call.Method + " " + call.Path
	}

	ctx, span := c.tracer.Start(ctx, "gateway."+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", call.Method),
		attribute.String("http.route", call.Path),
	)
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = strings.ToLower(string(errors.CodeOf(err)))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		elapsed := time.Since(start)
		metrics.GatewayRequests.WithLabelValues(name, outcome).Inc()
		metrics.GatewayRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		c.obs.RecordCall(ctx, name, elapsed, outcome)
		span.End()
	}()

	token := ""
	if !call.Anonymous {
		token, err = c.session.Token(ctx)
		if err != nil {
			return nil, errors.Normalize(fmt.Errorf("read session: %w", err))
		}
		if token == "" {
			c.teardown(ctx, "")
			return nil, errors.NewUnauthorizedError("no session token")
		}
	}

	req, err := c.newRequest(ctx, call, token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend unreachable", map[string]interface{}{"call": name, "error": err})
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if call.Anonymous {
			// Bad credentials on login; there is no session to tear down.
			return nil, errors.NewApplicationError(resp.StatusCode, extractErrorMessage(resp.StatusCode, body))
		}
		c.teardown(ctx, token)
		return nil, errors.NewUnauthorizedError(fmt.Sprintf("%s rejected the session", name))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractErrorMessage(resp.StatusCode, body)
		c.log.Info("backend rejected request", map[string]interface{}{
			"call":   name,
			"status": resp.StatusCode,
			"reason": msg,
		})
		return nil, errors.NewApplicationError(resp.StatusCode, msg)
	}

	return body, nil
}

func (c *Client) newRequest(ctx context.Context, call Call, token string) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, errors.Normalize(fmt.Errorf("encode %s body: %w", call.Name, err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, errors.Normalize(fmt.Errorf("build %s request: %w", call.Name, err))
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// teardown clears the session that produced an unauthorized outcome. Only
// the caller that actually removed the token, or the first caller to find
// no token at all, notifies and schedules the redirect.
func (c *Client) teardown(ctx context.Context, token string) {
	first := false
	if token != "" {
		// Latch before clearing: a concurrent call that finds the store
		// already empty must not notify as well.
		c.anonymousTeardown.Store(true)
		cleared, err := c.session.ClearIfCurrent(ctx, token)
		if err != nil {
			// The token may still be stored; the operator must hear about it.
			c.log.Error("failed to clear session", map[string]interface{}{"error": err})
			cleared = true
		}
		first = cleared
		if !cleared {
			if current, err := c.session.Token(ctx); err == nil && current != "" {
				c.anonymousTeardown.Store(false)
			}
		}
	} else {
		first = c.anonymousTeardown.CompareAndSwap(false, true)
	}
	if !first {
		return
	}

	c.teardowns.Add(1)
	metrics.SessionTeardowns.Inc()
	c.log.Warn("session torn down after unauthorized response", nil)

	if c.notify != nil {
		c.notify(errors.NewUnauthorizedError("").Message)
	}
	if c.redirect != nil {
		time.AfterFunc(c.redirectDelay, c.redirect)
	}
}

// Teardowns reports how many session teardowns this client performed.
func (c *Client) Teardowns() int64 {
	return c.teardowns.Load()
}
