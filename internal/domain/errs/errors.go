// Package errs defines the error taxonomy shared by the try-on pipeline and
// the HTTP boundary.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUpstream        Kind = "upstream"
	KindNoImageProduced Kind = "no_image_produced"
	KindConfiguration   Kind = "configuration"
	KindInternal        Kind = "internal"
)

// Error is a classified failure. Details carries extra text suitable for the
// client, such as the explanation returned by the model.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func NoImageProduced(modelText string) *Error {
	return &Error{
		Kind:    KindNoImageProduced,
		Message: "no image data received from the image model",
		Details: modelText,
	}
}

func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailsOf returns the client-facing details of err: the Details field of a
// classified error when set, otherwise the error text.
func DetailsOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Details != "" {
		return e.Details
	}
	return err.Error()
}
