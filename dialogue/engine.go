// Package dialogue implements the course menu state machine: it reads a
// session's state, lets the state's handler interpret the inbound event,
// performs the resulting operation and persists the next state.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/coursebot/core/logger"
)

const instrumentationName = "github.com/m3rciful/coursebot/dialogue"

// unresolvedState labels events whose current state could not be determined.
const unresolvedState = "UNRESOLVED"

const (
	defaultStoreTimeout    = 2 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
)

// Outcome labels attached to metrics, spans and log records.
const (
	OutcomeOK           = "ok"
	OutcomeUndelivered  = "undelivered"
	OutcomeStoreError   = "store_error"
	OutcomeUnknownState = "unknown_state"
)

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	// StoreTimeout bounds each session store read and write.
	StoreTimeout time.Duration
	// DeliveryTimeout bounds each transport operation.
	DeliveryTimeout time.Duration
	// LegacyAliases accepts the HANDLE_SYMPTOMS label and the symptoms
	// payload left behind by earlier deployments.
	LegacyAliases bool
	// Tracer and Meter default to the global OTel providers.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Engine processes inbound events. It is safe for concurrent use; events of
// different sessions run in parallel and events of the same session are not
// serialised (last write wins).
type Engine struct {
	store     SessionStore
	transport Transport
	handlers  *handlers
	opts      Options
	tracer    trace.Tracer
	metrics   *engineMetrics
}

// NewEngine wires an engine around its collaborators.
func NewEngine(store SessionStore, transport Transport, c Content, opts Options) (*Engine, error) {
	switch {
	case store == nil:
		return nil, errors.New("dialogue: nil session store")
	case transport == nil:
		return nil, errors.New("dialogue: nil transport")
	case c == nil:
		return nil, errors.New("dialogue: nil content")
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(instrumentationName)
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter(instrumentationName)
	}
	m, err := newEngineMetrics(opts.Meter)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:     store,
		transport: transport,
		handlers:  newHandlers(c, opts.LegacyAliases),
		opts:      opts,
		tracer:    opts.Tracer,
		metrics:   m,
	}, nil
}

// Process handles one inbound event for sessionID. The returned error is nil,
// a single *Error, or several of them joined; it never means the engine stopped.
// When an operation fails to deliver, the next state is still persisted.
func (e *Engine) Process(ctx context.Context, sessionID int64, ev Event) error {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "dialogue.process", trace.WithAttributes(
		attribute.Int64("session.id", sessionID),
		attribute.String("event.kind", ev.Kind.String()),
	))
	defer span.End()
	if sc := span.SpanContext(); sc.IsValid() {
		ctx = logger.WithTrace(ctx, sc.TraceID().String(), sc.SpanID().String())
	}

	current, err := e.current(ctx, sessionID, ev)
	if err != nil {
		e.finish(ctx, span, start, ev, unresolvedState, "", err)
		return err
	}

	decision, ok := e.handlers.decide(current, ev)
	if !ok {
		err := e.unknownState(ctx, sessionID, current.String())
		e.finish(ctx, span, start, ev, current.String(), "", err)
		return err
	}

	var errs []error
	if decision.Op != nil {
		if err := e.deliver(ctx, sessionID, current, *decision.Op); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.save(ctx, sessionID, decision.Next); err != nil {
		errs = append(errs, err)
	}

	err = errors.Join(errs...)
	e.finish(ctx, span, start, ev, current.String(), decision.Next.String(), err)
	return err
}

// current resolves the effective state: the reset command short-circuits
// the store read and an absent label means StateInitial.
func (e *Engine) current(ctx context.Context, sessionID int64, ev Event) (State, error) {
	if ev.IsReset() {
		return StateInitial, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	label, found, err := e.store.Load(readCtx, sessionID)
	if err != nil {
		e.metrics.storeFailed(ctx, "get")
		return StateInitial, &Error{Kind: KindStoreUnavailable, SessionID: sessionID, Op: "get", Err: err}
	}
	if !found {
		return StateInitial, nil
	}
	st, ok := ParseState(label)
	if !ok && e.opts.LegacyAliases {
		st, ok = parseLegacyState(label)
	}
	if !ok {
		return StateInitial, e.unknownState(ctx, sessionID, label)
	}
	return st, nil
}

func (e *Engine) unknownState(ctx context.Context, sessionID int64, label string) error {
	e.metrics.unknownState.Add(ctx, 1)
	return &Error{Kind: KindUnknownState, SessionID: sessionID, State: label}
}

func (e *Engine) deliver(ctx context.Context, sessionID int64, current State, op Operation) error {
	sendCtx, cancel := context.WithTimeout(ctx, e.opts.DeliveryTimeout)
	defer cancel()
	if err := e.transport.Execute(sendCtx, op); err != nil {
		e.metrics.deliveryFailed(ctx, op.Kind)
		return &Error{Kind: KindDeliveryFailed, SessionID: sessionID, State: current.String(), Op: op.Kind.String(), Err: err}
	}
	return nil
}

func (e *Engine) save(ctx context.Context, sessionID int64, next State) error {
	writeCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	if err := e.store.Save(writeCtx, sessionID, next.String()); err != nil {
		e.metrics.storeFailed(ctx, "set")
		return &Error{Kind: KindStoreUnavailable, SessionID: sessionID, State: next.String(), Op: "set", Err: err}
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, start time.Time, ev Event, state, next string, err error) {
	outcome := outcomeOf(err)
	took := time.Since(start)
	e.metrics.observe(ctx, state, outcome, took)

	span.SetAttributes(
		attribute.String("dialogue.state", state),
		attribute.String("dialogue.outcome", outcome),
	)
	if next != "" {
		span.SetAttributes(attribute.String("dialogue.next_state", next))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if err == nil && !logger.ShouldSampleDebug() {
		return
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("state", state),
		slog.String("event_kind", ev.Kind.String()),
		slog.String("outcome", outcome),
		slog.Duration("duration", took),
	}
	if next != "" {
		attrs = append(attrs, slog.String("next_state", next))
	}
	if ev.Kind == EventButton {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(ev.Payload, 64)))
	}
	logger.LogEvent(ctx, logger.Dialogue, slog.LevelDebug, "dialogue.processed", attrs...)
}

// outcomeOf ranks store failures above unknown states above delivery failures.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeStoreError
	case errors.Is(err, ErrUnknownState):
		return OutcomeUnknownState
	case errors.Is(err, ErrDeliveryFailed):
		return OutcomeUndelivered
	default:
		return "fail"
	}
}
