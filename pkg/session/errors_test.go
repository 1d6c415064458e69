package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leadline-ai/leadline/pkg/transport"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"subscription limit substring", errors.New("HTTP 402 subscription limit exceeded"), KindPaymentRequired},
		{"bare 402 substring", errors.New("upstream said 402"), KindPaymentRequired},
		{"structured 402", &transport.StatusError{Code: 402, Message: "payment required"}, KindPaymentRequired},
		{"wrapped structured 402", fmt.Errorf("engine call failed: %w", &transport.StatusError{Code: 402, Message: "quota"}), KindPaymentRequired},
		{"structured 500", &transport.StatusError{Code: 500, Message: "oops"}, KindTransportFailure},
		{"generic", errors.New("connection refused"), KindTransportFailure},
		{"timeout", errors.New("context deadline exceeded"), KindTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindPaymentRequired.String() != "payment_required" {
		t.Errorf("KindPaymentRequired.String() = %q", KindPaymentRequired.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
