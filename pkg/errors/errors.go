package errors

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Adapters surface these as distinct sentinels; the
// dispatcher never catches or retries them, it propagates the first one
// encountered and aborts the enclosing operation.
var (
	// ErrAuthentication: credential rejected, operator cancelled, or the
	// challenge loop was abandoned.
	ErrAuthentication = errors.New("authentication failed")
	// ErrDownload: source file bytes unobtainable.
	ErrDownload = errors.New("download failed")
	// ErrUpload: destination rejected bytes or the type was undetectable.
	ErrUpload = errors.New("upload failed")
	// ErrPublish: destination refused to create the post.
	ErrPublish = errors.New("publish failed")
	// ErrTransport: generic network/service failure underlying any of the above.
	ErrTransport = errors.New("transport failure")
)

// Error represents a custom error type
type Error struct {
	Kind    error // one of the sentinels above, or nil
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped errors, making the error match both its kind
// sentinel and its cause with errors.Is.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapKind wraps an error with one of the taxonomy sentinels and a message.
func WrapKind(err, kind error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Kind creates a new taxonomy error with a message and no underlying cause.
func Kind(kind error, message string) error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsAuthentication returns true if the error is an authentication error
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsDownload returns true if the error is a download error
func IsDownload(err error) bool {
	return errors.Is(err, ErrDownload)
}

// IsUpload returns true if the error is an upload error
func IsUpload(err error) bool {
	return errors.Is(err, ErrUpload)
}

// IsPublish returns true if the error is a publish error
func IsPublish(err error) bool {
	return errors.Is(err, ErrPublish)
}

// IsTransport returns true if the error is a transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
