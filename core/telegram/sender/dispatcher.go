// Package sender executes outbound Bot API calls with bounded concurrency and retries.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrClosed is returned for calls submitted after Close.
	ErrClosed = errors.New("telegram sender: dispatcher closed")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// Workers bounds the number of Bot API calls in flight.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single call.
	MaxDuration time.Duration
}

// Dispatcher runs outbound calls synchronously for the caller, sharing a
// bounded number of slots between all goroutines.
type Dispatcher struct {
	opts  Options
	slots chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher fills zeroed options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 8 * time.Second
	}
	return &Dispatcher{
		opts:  opts,
		slots: make(chan struct{}, opts.Workers),
	}
}

// Do runs fn, retrying transient failures with linear backoff until it
// succeeds, the retry budget is spent or ctx is done. fn must be safe to repeat.
func (d *Dispatcher) Do(ctx context.Context, action, endpoint string, fn func() error) error {
	if fn == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	d.wg.Add(1)
	d.mu.RUnlock()
	defer d.wg.Done()

	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		d.errs.Add(1)
		return ctx.Err()
	}
	defer func() { <-d.slots }()

	err := d.run(ctx, call{action: action, endpoint: endpoint, fn: fn})
	if err != nil {
		d.errs.Add(1)
	}
	return err
}

// Close rejects new calls, waits for in-flight ones and logs the failure total.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
	logger.Info(context.Background(), "tg.sender", "sender.closed",
		slog.Uint64("errors", d.errs.Load()),
	)
}

type call struct {
	action   string
	endpoint string
	fn       func() error
}

func (d *Dispatcher) run(ctx context.Context, c call) error {
	deadlineCtx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := deadlineCtx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		err := c.fn()
		if err == nil {
			logSendSuccess(ctx, c, attempt, time.Since(start))
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == attempts {
			break
		}

		delay := d.backoff(err, attempt)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			logSendFailure(ctx, c, lastErr, attempt, time.Since(start))
			return lastErr
		case <-timer.C:
		}
		logger.Debug(ctx, "tg.sender", "send.retry.backoff",
			append(sendLogAttrs(c),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error_kind", classifyError(err)),
			)...,
		)
	}

	logSendFailure(ctx, c, lastErr, attempts, time.Since(start))
	return lastErr
}

// backoff honours Telegram's retry_after on flood errors.
func (d *Dispatcher) backoff(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

// retryable extends the network classification with HTTP 429 and 5xx answers.
func retryable(err error) bool {
	if netutil.ShouldRetry(err) {
		return true
	}
	status := httpStatusFromError(err)
	return status == http.StatusTooManyRequests || status >= 500
}

func sendLogAttrs(c call) []slog.Attr {
	attrs := []slog.Attr{slog.String("op", c.action)}
	if c.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", c.endpoint))
	}
	return attrs
}

func logSendSuccess(ctx context.Context, c call, attempt int, elapsed time.Duration) {
	attrs := sendLogAttrs(c)
	if attempt > 1 {
		attrs = append(attrs, slog.Int("attempts", attempt))
		attrs = append(attrs, slog.Duration("duration", elapsed))
		logger.Info(ctx, "tg.sender", "send.retry.success", attrs...)
		return
	}
	if logger.ShouldSampleDebug() {
		attrs = append(attrs, slog.Duration("duration", elapsed))
		logger.Debug(ctx, "tg.sender", "send.success", attrs...)
	}
}

func logSendFailure(ctx context.Context, c call, err error, attempts int, elapsed time.Duration) {
	attrs := append(sendLogAttrs(c),
		slog.String("status", "fail"),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", classifyError(err)),
		slog.Int("attempts", attempts),
		slog.Duration("duration", elapsed),
	)
	logger.Warn(ctx, "tg.sender", "send.fail", attrs...)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	status := httpStatusFromError(err)
	switch {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// sanitizeErrorMessage prevents accidental leakage of Telegram bot tokens in logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}

	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}

	// telebot renders unknown API errors as "telegram: <description> (<code>)".
	msg := err.Error()
	lastOpen := strings.LastIndex(msg, "(")
	lastClose := strings.LastIndex(msg, ")")
	if lastOpen >= 0 && lastClose > lastOpen+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[lastOpen+1 : lastClose])); convErr == nil {
			return code
		}
	}
	return 0
}
