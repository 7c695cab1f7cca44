package order

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnPaymentConfirmed(o *Order) (OrderState, error)
	OnCancel(o *Order) (OrderState, error)
	OnShip(o *Order) (OrderState, error)
	OnDeliver(o *Order) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusPending:
		return pendingState{}
	case StatusProcessing:
		return processingState{}
	case StatusShipped:
		return shippedState{}
	case StatusDelivered:
		return terminalState{status: StatusDelivered}
	case StatusCancelled:
		return terminalState{status: StatusCancelled}
	default:
		return terminalState{status: s}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnPaymentConfirmed(*Order) (OrderState, error) {
	return processingState{}, nil
}

func (pendingState) OnCancel(*Order) (OrderState, error) {
	return terminalState{status: StatusCancelled}, nil
}

func (pendingState) OnShip(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (pendingState) OnDeliver(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }

func (processingState) OnPaymentConfirmed(*Order) (OrderState, error) {
	return processingState{}, nil
}

func (processingState) OnCancel(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (processingState) OnShip(*Order) (OrderState, error) {
	return shippedState{}, nil
}

func (processingState) OnDeliver(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnPaymentConfirmed(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnCancel(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnShip(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnDeliver(*Order) (OrderState, error) {
	return terminalState{status: StatusDelivered}, nil
}

// terminalState covers delivered and cancelled orders; nothing leaves it.
type terminalState struct{ status Status }

func (s terminalState) Status() Status { return s.status }

func (terminalState) OnPaymentConfirmed(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnCancel(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnShip(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnDeliver(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded},
}

// CanTransitionPayment reports whether the payment status may move from one value to the other.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (o *Order) apply(next OrderState, err error) error {
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// ConfirmPayment marks the payment paid and moves a pending order into processing.
func (o *Order) ConfirmPayment() error {
	if !CanTransitionPayment(o.PaymentStatus, PaymentPaid) {
		return ErrInvalidStateTransition
	}
	if err := o.apply(stateFor(o.Status).OnPaymentConfirmed(o)); err != nil {
		return err
	}
	o.PaymentStatus = PaymentPaid
	return nil
}

// Cancel is only allowed while the order is still pending.
func (o *Order) Cancel() error {
	return o.apply(stateFor(o.Status).OnCancel(o))
}

func (o *Order) Ship() error {
	return o.apply(stateFor(o.Status).OnShip(o))
}

func (o *Order) Deliver() error {
	return o.apply(stateFor(o.Status).OnDeliver(o))
}
