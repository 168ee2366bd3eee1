// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package errors provides convenience functions for reporting errors
// bundled with the HTTP status codes the Cloudant API uses.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatusNoError is returned by StatusCode when the error carries no
// embedded HTTP status.
const StatusNoError = 0

// StatusError is an error message bundled with an HTTP status code.
type StatusError struct {
	statusCode int
	message    string
}

func (se *StatusError) Error() string {
	return se.message
}

// StatusCode returns the StatusError's embedded HTTP status code.
func (se *StatusError) StatusCode() int {
	return se.statusCode
}

// StatusCoder is an optional error interface, which returns the error's
// embedded HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// StatusCode extracts an embedded HTTP status code from an error. It
// unwraps wrapped errors as needed.
func StatusCode(err error) int {
	for err != nil {
		if scErr, ok := err.(StatusCoder); ok {
			return scErr.StatusCode()
		}
		err = errors.Unwrap(err)
	}
	return StatusNoError
}

// New is a wrapper around the standard errors.New, to avoid the need for
// multiple imports.
func New(msg string) error {
	return errors.New(msg)
}

// Status returns a new error with the designated HTTP status.
func Status(status int, msg string) error {
	return &StatusError{
		statusCode: status,
		message:    msg,
	}
}

// Statusf returns a new error with the designated HTTP status.
func Statusf(status int, format string, args ...interface{}) error {
	return &StatusError{
		statusCode: status,
		message:    fmt.Sprintf(format, args...),
	}
}

type wrappedError struct {
	err        error
	statusCode int
}

func (e *wrappedError) Error() string {
	return e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

func (e *wrappedError) StatusCode() int {
	return e.statusCode
}

// WrapStatus bundles an existing error with a status code.
func WrapStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		err:        err,
		statusCode: status,
	}
}

// WrapStatusf bundles a formatted wrapping of err with a status code.
func WrapStatusf(status int, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		err:        errors.Wrapf(err, format, args...),
		statusCode: status,
	}
}

// Is is a wrapper around the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a wrapper around the standard errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap is a wrapper around pkg/errors.Wrap()
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is a wrapper around pkg/errors.Wrapf()
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Errorf is a wrapper around pkg/errors.Errorf()
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
