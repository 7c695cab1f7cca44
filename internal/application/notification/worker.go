package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService      = "notification-worker"
	useCaseOrderPlaced = "notification.order_placed"
	spanPrefix         = "UC."
	mailPeer           = "mailer"
	mailEndpoint       = "order_confirmation"
	defaultSendTimeout = 15 * time.Second
)

// Worker e-mails an order confirmation for every order.placed event.
// Delivery is best-effort: failures are logged and counted, never retried.
type Worker struct {
	subscriber  domoutbox.Subscriber
	mailer      Mailer
	tel         observability.Observability
	sendTimeout time.Duration

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewWorker(subscriber domoutbox.Subscriber, mailer Mailer, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		mailer:       mailer,
		tel:          tel,
		sendTimeout:  defaultSendTimeout,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.mailer == nil {
		return
	}
	w.subscriber.Subscribe(order.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(order.OrderPlacedEvent)
	if !ok {
		w.count(useCaseOrderPlaced, "ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"SendOrderConfirmation",
		attribute.String("use_case", useCaseOrderPlaced),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.Order.ID),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseOrderPlaced),
		observability.F("order_id", evt.Order.ID),
	)
	ctx = logctx.With(ctx, logger)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(useCaseOrderPlaced, outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		}
		fields = append(fields, observability.SpanFields(ctx)...)
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)

		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	msg := RenderConfirmation(evt.Order)
	if msg.To == "" {
		outcome, status = "skipped", "NO_RECIPIENT"
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	sendStart := time.Now()
	sendErr := w.mailer.Send(sendCtx, msg)

	extOutcome := "success"
	if sendErr != nil {
		extOutcome = "error"
		if sendCtx.Err() == context.DeadlineExceeded {
			extOutcome = "timeout"
		}
	}
	w.extCounter.Add(1,
		observability.L("peer", mailPeer),
		observability.L("endpoint", mailEndpoint),
		observability.L("outcome", extOutcome),
	)
	w.extHistogram.Observe(time.Since(sendStart).Seconds(),
		observability.L("peer", mailPeer),
		observability.L("endpoint", mailEndpoint),
	)

	if sendErr != nil {
		outcome, status = "error", "MAIL_SEND_FAILED"
		return fmt.Errorf("notification: send confirmation: %w", sendErr)
	}
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds,
		observability.L("use_case", useCase),
	)
}
