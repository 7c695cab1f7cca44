package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseVerifyPayment = "order.verify_payment"

type VerifyPaymentCommand struct {
	SessionID string
}

// VerifyPaymentResult always reports what the gateway said, whether or not an order matched.
type VerifyPaymentResult struct {
	Status   string
	Amount   decimal.Decimal
	Metadata map[string]string
	Paid     bool
	Order    *order.Order
}

// VerifyPaymentUseCase settles a hosted checkout order once the gateway reports it paid.
type VerifyPaymentUseCase struct {
	deps   Deps
	inst   *application.Instrumentation
	method order.PaymentMethod
}

func NewVerifyPaymentUseCase(deps Deps, tel observability.Observability) *VerifyPaymentUseCase {
	return newVerifyPaymentUseCase(deps.withDefaults(), application.NewInstrumentation(tel, checkoutService))
}

func newVerifyPaymentUseCase(deps Deps, inst *application.Instrumentation) *VerifyPaymentUseCase {
	return &VerifyPaymentUseCase{deps: deps, inst: inst, method: order.MethodStripe}
}

func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, cmd VerifyPaymentCommand) (_ *VerifyPaymentResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseVerifyPayment, "VerifyPayment",
		attribute.String("payment.session_id", cmd.SessionID),
	)
	defer func() { run.End(err) }()

	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		run.Fail("SESSION_ID_REQUIRED")
		return nil, apperr.Validation("session_id", "The session id field is required.")
	}

	gateway, ok := uc.deps.Payments.Lookup(uc.method)
	if !ok {
		run.Fail("GATEWAY_NOT_CONFIGURED")
		return nil, &apperr.PaymentSessionError{Reason: "hosted checkout is not configured"}
	}
	st, err := gateway.GetSessionStatus(ctx, sessionID)
	if err != nil {
		run.Fail("SESSION_LOOKUP_FAILED")
		return nil, &apperr.PaymentSessionError{Reason: "retrieve checkout session", Err: err}
	}

	res := &VerifyPaymentResult{
		Status:   st.Status,
		Amount:   st.Amount,
		Metadata: st.Metadata,
		Paid:     st.Paid(),
	}
	run.Field("payment_status", st.Status)
	if !res.Paid {
		run.Status("NOT_PAID")
		return res, nil
	}

	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx uow.Tx) error {
		o, err := tx.Orders().FindBySessionID(ctx, sessionID)
		if errors.Is(err, order.ErrNotFound) {
			run.Status("ORDER_NOT_FOUND")
			return nil
		}
		if err != nil {
			return &apperr.PersistenceError{Op: "find order by session", Err: err}
		}
		run.Field("order_id", o.ID)

		if o.PaymentStatus == order.PaymentPaid {
			run.Status("ALREADY_PAID")
			res.Order = o
			return nil
		}
		if err := o.ConfirmPayment(); err != nil {
			return &apperr.InvalidStateError{Resource: "order", From: string(o.Status), Action: "confirm payment"}
		}
		err = tx.Orders().Update(ctx, o, order.StatusPending)
		if errors.Is(err, order.ErrStale) {
			// a concurrent verify or cancel committed first
			latest, gerr := tx.Orders().Get(ctx, o.ID)
			if gerr == nil && latest.PaymentStatus == order.PaymentPaid {
				run.Status("ALREADY_PAID")
				res.Order = latest
				return nil
			}
			return &apperr.InvalidStateError{Resource: "order", From: currentStatus(ctx, tx, o.ID), Action: "confirm payment"}
		}
		if err != nil {
			return &apperr.PersistenceError{Op: "update order", Err: err}
		}
		res.Order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
