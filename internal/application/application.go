package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

const spanPrefix = "UC."

// Instrumentation carries the RED instruments shared by the use cases of one service.
type Instrumentation struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewInstrumentation binds the service name onto the base logger. A nil tel records nothing.
func NewInstrumentation(tel observability.Observability, service string) *Instrumentation {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Instrumentation{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Logger returns the service logger.
func (i *Instrumentation) Logger() observability.Logger { return i.log }

// Execution tracks one running use case until End is called.
type Execution struct {
	inst    *Instrumentation
	useCase string
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	start   time.Time

	outcome string
	status  string
	fields  []observability.Field
}

// Begin starts the span "UC.<spanName>" and stores a use-case scoped logger on the
// returned context so repositories and adapters log with the same fields.
func (i *Instrumentation) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Execution) {
	ctx, span := i.tracer.Start(ctx, spanPrefix+spanName,
		append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)...,
	)
	logger := logctx.FromOr(ctx, i.log).With(observability.F("use_case", useCase))
	ctx = logctx.With(ctx, logger)

	return ctx, &Execution{
		inst:    i,
		useCase: useCase,
		ctx:     ctx,
		span:    span,
		logger:  logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (e *Execution) Logger() observability.Logger { return e.logger }

func (e *Execution) Span() trace.Span { return e.span }

// Fail marks the execution failed with a SCREAMING_SNAKE status.
func (e *Execution) Fail(status string) {
	e.outcome, e.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (e *Execution) Status(status string) {
	e.status = status
}

// Field adds a field to the final "use_case_done" line.
func (e *Execution) Field(key string, value any) {
	e.fields = append(e.fields, observability.F(key, value))
}

// End records the span status, the RED metrics and the "use_case_done" line.
func (e *Execution) End(err error) {
	if err != nil && e.outcome == "success" {
		e.Fail(StatusFor(err))
	}
	lat := time.Since(e.start).Seconds()

	if e.span != nil {
		if err != nil {
			e.span.RecordError(err)
			e.span.SetStatus(codes.Error, e.status)
		} else {
			e.span.SetStatus(codes.Ok, e.status)
		}
		e.span.End()
	}

	e.inst.reqCounter.Add(1,
		observability.L("use_case", e.useCase),
		observability.L("outcome", e.outcome),
	)
	e.inst.durHistogram.Observe(lat,
		observability.L("use_case", e.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", e.outcome),
		observability.F("status", e.status),
		observability.F("latency_seconds", lat),
	}
	fields = append(fields, observability.SpanFields(e.ctx)...)
	fields = append(fields, e.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	e.logger.Info("use_case_done", fields...)
}

// StatusFor derives a status text from the error kind, e.g. "INSUFFICIENT_STOCK".
func StatusFor(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, context.Canceled):
		return "CONTEXT_CANCELED"
	case errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_DEADLINE_EXCEEDED"
	}
	return strings.ToUpper(string(apperr.KindOf(err)))
}
