package graphql

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindTransport Kind = iota + 1
	KindServer
	KindProtocol
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindProtocol:
		return "protocol"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Failure is the terminal outcome of a call that did not succeed. Every
// failure is final for that call; nothing is retried.
type Failure struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindTransport:
		return fmt.Sprintf("network error: %v", f.Err)
	case KindServer:
		return fmt.Sprintf("server error: %d", f.StatusCode)
	case KindProtocol:
		return fmt.Sprintf("sync/parse error: %v", f.Err)
	case KindValidation:
		return fmt.Sprintf("invalid input: %v", f.Err)
	default:
		return fmt.Sprintf("%s failed: %v", f.Op, f.Err)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf reports the failure kind carried by err, or 0 when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by a server failure.
func StatusOf(err error) int {
	var f *Failure
	if errors.As(err, &f) && f.Kind == KindServer {
		return f.StatusCode
	}
	return 0
}

func transportFailure(op string, err error) *Failure {
	return &Failure{Kind: KindTransport, Op: op, Err: err}
}

func serverFailure(op string, status int, body []byte) *Failure {
	return &Failure{Kind: KindServer, Op: op, StatusCode: status, Err: fmt.Errorf("unexpected status %d: %s", status, truncate(body, 256))}
}

func protocolFailure(op string, err error) *Failure {
	return &Failure{Kind: KindProtocol, Op: op, Err: err}
}

// ValidationFailure reports input rejected before any request was built.
func ValidationFailure(op string, err error) *Failure {
	return &Failure{Kind: KindValidation, Op: op, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
