// Package transport abstracts the call to the remote agent engine. The
// session controller only sees Invoke; whether the engine is a remote HTTP
// service, a spawned subprocess, or an in-process provider call is a
// configuration choice.
package transport

import (
	"context"
	"fmt"
)

// Logical endpoints the engine exposes.
const (
	EndpointChat     = "chat"
	EndpointResearch = "research"
)

// Transport delivers one encoded request to an engine endpoint and returns
// the raw JSON-shaped reply. Implementations own their timeout policy; any
// outcome, including a timeout, surfaces as the returned error.
type Transport interface {
	Invoke(ctx context.Context, endpoint string, payload []byte) ([]byte, error)
}

// StatusError is a transport failure that carries a structured status code.
// Callers classify on the code rather than the message text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("engine returned %d: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP-like status carried by the failure.
func (e *StatusError) StatusCode() int { return e.Code }
