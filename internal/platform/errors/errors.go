// Package errors tags failures with the layer they came from so the process
// can log and exit accordingly.
package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindDomain    Kind = "domain"
	KindTransport Kind = "transport"
	KindPlatform  Kind = "platform"
	KindBootstrap Kind = "bootstrap"
	KindStorage   Kind = "storage"
	KindAnalysis  Kind = "analysis"
	KindUnknown   Kind = "unknown"
)

// exit codes per kind; anything unlisted exits 1
var exitCodes = map[Kind]int{
	KindConfig:    2,
	KindStorage:   3,
	KindTransport: 4,
}

// Error is a failure in operation Op of layer Kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
	if e.Cause == nil {
		return prefix
	}
	return prefix + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap tags err with kind and op. Nil stays nil, and an err that already holds
// an *Error is returned unchanged so the innermost tag wins.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil || As(err) != nil {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind && As(err) != nil
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind
	}
	return KindUnknown
}

// ExitCode maps err to a process exit status: 0 for nil, 2 for config, 3 for
// storage, 4 for transport and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[KindOf(err)]; ok {
		return code
	}
	return 1
}
