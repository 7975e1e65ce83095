package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomyMatchesSentinels(t *testing.T) {
	cause := errors.New("connection reset")
	cases := []struct {
		err    error
		target error
	}{
		{newValidationError("email", "is required"), ErrValidation},
		{&InvalidTransitionError{From: "ready", Action: "accept"}, ErrInvalidTransition},
		{&PartialOrderError{OrderID: 1, OrderNumber: "ORD-1", Err: cause}, ErrPartialOrder},
		{newExternalError("create order", cause), ErrExternalService},
		{fmt.Errorf("wrapped: %w", newValidationError("", "bad")), ErrValidation},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.target) {
			t.Fatalf("%v should match %v", tc.err, tc.target)
		}
	}
	if errors.Is(newValidationError("x", "y"), ErrExternalService) {
		t.Fatalf("validation error must not match external sentinel")
	}
	if !errors.Is(&PartialOrderError{Err: cause}, cause) {
		t.Fatalf("partial order error should unwrap its cause")
	}
	if newExternalError("noop", nil) != nil {
		t.Fatalf("nil cause should yield nil error")
	}
}

func TestPartialOrderErrorAs(t *testing.T) {
	err := fmt.Errorf("submit: %w", &PartialOrderError{OrderID: 9, OrderNumber: "ORD-123456001"})
	var partial *PartialOrderError
	if !errors.As(err, &partial) {
		t.Fatalf("errors.As should find partial order error")
	}
	if partial.OrderNumber != "ORD-123456001" {
		t.Fatalf("unexpected order number: %s", partial.OrderNumber)
	}
}
