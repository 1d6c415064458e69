package session

import (
	"errors"
	"strings"
)

// Kind classifies a failed call cycle.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindSessionBusy
	KindMalformedResponse
	KindTransportFailure
	KindPaymentRequired
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindSessionBusy:
		return "session_busy"
	case KindMalformedResponse:
		return "malformed_response"
	case KindTransportFailure:
		return "transport_failure"
	case KindPaymentRequired:
		return "payment_required"
	}
	return "unknown"
}

var (
	// ErrEmptyInput rejects a send/research call with no content.
	ErrEmptyInput = errors.New("session: input is empty")
	// ErrBusy rejects a call while another cycle is in flight.
	ErrBusy = errors.New("session: call already in flight")
)

// statusCoder is implemented by transport errors that carry a structured
// HTTP-like status. Checked before the legacy substring rules.
type statusCoder interface {
	StatusCode() int
}

// Classify maps a transport-level failure to a Kind.
//
// A structured 402 status wins outright. The substring rules ("subscription
// limit", "402") are a legacy-compatibility fallback for transports that
// only surface a message; new transports should implement StatusCode.
func Classify(err error) Kind {
	if err == nil {
		return KindTransportFailure
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == 402 {
		return KindPaymentRequired
	}

	msg := err.Error()
	if strings.Contains(msg, "subscription limit") || strings.Contains(msg, "402") {
		return KindPaymentRequired
	}
	return KindTransportFailure
}
