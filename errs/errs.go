// Copyright 2015 Matthew Holt and The Caddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errs defines the error taxonomy shared by the field registry,
// template, record, and transport packages. It favors one structured error
// type over a forest of sentinel values so that callers can both inspect
// the Kind and get a serviceable message, the same shape the teacher uses
// for its own API/handler errors.
package errs

import "fmt"

// Kind classifies an Error without pinning down its exact cause. Callers
// that need to branch on error category should compare Kind, not the
// formatted message.
type Kind uint8

const (
	// Other is the zero value; avoid constructing errors with it.
	Other Kind = iota

	// CallerContract marks invalid arguments: nil/empty input, out-of-range
	// values, unknown field id or name, a type mismatch on re-registration,
	// a malformed spec string, or an oversized record.
	CallerContract

	// Resource marks allocation failure, too many fields, or too many
	// clients.
	Resource

	// Io marks a socket read/write error, connection reset, broken pipe,
	// or a bind/listen/file-path failure.
	Io

	// NegotiationFormatMismatch marks a fatal disagreement between sender
	// and receiver formats; the peer must be disconnected.
	NegotiationFormatMismatch

	// NegotiationFormatChanged is non-fatal: the receiver must reinstall
	// its template and continue.
	NegotiationFormatChanged

	// Timeout marks a bounded wait that expired without data or space.
	// It is not a defect of the endpoint itself.
	Timeout

	// Terminated marks an operation that was in flight when the endpoint
	// was terminated.
	Terminated
)

func (k Kind) String() string {
	switch k {
	case CallerContract:
		return "caller-contract"
	case Resource:
		return "resource"
	case Io:
		return "io"
	case NegotiationFormatMismatch:
		return "negotiation-format-mismatch"
	case NegotiationFormatChanged:
		return "negotiation-format-changed"
	case Timeout:
		return "timeout"
	case Terminated:
		return "terminated"
	default:
		return "other"
	}
}

// Error is the single structured error type used across this module. Op
// names the operation that failed (e.g. "template.create", "record.set_var")
// so that a single error shows both what was being attempted and why.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.String()
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error. err may be nil, in which case Op alone is the
// message.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether target is an *Error with the same Kind, letting
// callers write errors.Is(err, errs.New(errs.Timeout, "", nil)) or, more
// idiomatically, errs.Of(err) == errs.Timeout.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Of returns the Kind of err if it is (or wraps) an *Error, else Other.
func Of(err error) Kind {
	var e *Error
	for err != nil {
		if casted, ok := err.(*Error); ok {
			e = casted
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Other
	}
	return e.Kind
}

// Errorf builds an *Error of the given kind whose message is formatted
// like fmt.Errorf, a common enough case to deserve a shorthand.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
