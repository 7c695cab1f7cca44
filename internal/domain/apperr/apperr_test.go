package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), KindUnknown},
		{"validation", Validation("email", "required"), KindValidation},
		{"empty cart", &EmptyCartError{}, KindEmptyCart},
		{"stock", &InsufficientStockError{ProductID: "p"}, KindInsufficientStock},
		{"wrapped not found", fmt.Errorf("load: %w", &NotFoundError{Resource: "order"}), KindNotFound},
		{"payment", &PaymentSessionError{Reason: "create"}, KindPaymentSession},
		{"state", &InvalidStateError{Resource: "order"}, KindInvalidState},
		{"persistence", &PersistenceError{Op: "insert"}, KindPersistence},
		{"conflict", &ConflictError{Resource: "user", Field: "email"}, KindConflict},
		{"unauthorized", &UnauthorizedError{}, KindUnauthorized},
		{"forbidden", &ForbiddenError{}, KindForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PersistenceError{Op: "commit", Err: cause}
	assert.ErrorIs(t, err, cause)

	perr := &PaymentSessionError{Reason: "create", Err: cause}
	assert.ErrorIs(t, perr, cause)
}

func TestFieldsAccumulate(t *testing.T) {
	f := Fields{}
	require.NoError(t, f.Err())

	f.Add("email", "required")
	f.Add("email", "ignored second message")
	f.Add("name", "required")

	var verr *ValidationError
	require.ErrorAs(t, f.Err(), &verr)
	assert.Equal(t, "required", verr.Fields["email"])
	assert.Equal(t, "validation failed: email: required; name: required", verr.Error())
}

func TestInsufficientStockMessage(t *testing.T) {
	err := &InsufficientStockError{ProductName: "Widget", Available: 2, Requested: 3}
	assert.Equal(t, "insufficient stock for Widget. Only 2 available", err.Error())
}
