// Package errors classifies failures of the video analysis pipeline.
//
// Validation and Rejection are expected, caller-facing outcomes. Every other kind is a
// system fault: it is logged with full context and reported to the caller generically.
package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindValidation        Kind = "validation"
	KindStorage           Kind = "storage"
	KindRejection         Kind = "rejection"
	KindGateway           Kind = "gateway"
	KindMalformedResponse Kind = "malformed_response"
	KindPersistence       Kind = "persistence"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Benign reports whether the error may be shown to the caller verbatim.
func (e *Error) Benign() bool {
	return e != nil && (e.Kind == KindValidation || e.Kind == KindRejection)
}

func newErr(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Validation(op, msg string) *Error { return newErr(KindValidation, op, msg, nil) }

func Storage(op string, err error) *Error { return newErr(KindStorage, op, "", err) }

func Rejection(op, reason string) *Error { return newErr(KindRejection, op, reason, nil) }

func Gateway(op string, err error) *Error { return newErr(KindGateway, op, "", err) }

func Malformed(op, msg string) *Error { return newErr(KindMalformedResponse, op, msg, nil) }

func Persistence(op string, err error) *Error { return newErr(KindPersistence, op, "", err) }

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
