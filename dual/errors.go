// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports malformed seed parameters (bad slot, size or order)
	// or operands that cannot be combined.
	ErrInvalidConfiguration = errors.New("dual: invalid configuration")
	// ErrUnsupportedConfiguration reports higher order (> 2) tracking requested with more than one variable.
	ErrUnsupportedConfiguration = errors.New("dual: unsupported configuration")
	// ErrOrderMismatch is returned when combining two values whose tracked higher orders differ.
	ErrOrderMismatch = errors.New("dual: higher order mismatch")
	// ErrDomain reports an elementary function evaluated outside its real domain.
	ErrDomain = errors.New("dual: domain error")
	// ErrUndefinedDerivative reports a derivative that is undefined at the given point.
	ErrUndefinedDerivative = errors.New("dual: undefined derivative")
	// ErrInvalidType is returned when an operand is not a differentiable value.
	ErrInvalidType = errors.New("dual: invalid type")
	// ErrInvalidComparison is returned when an operand is not comparable to the receiver.
	ErrInvalidComparison = errors.New("dual: invalid comparison")
	// ErrUnsupportedOperation reports an operation not defined for the given value, such as the
	// Hessian of a multi-component Vector.
	ErrUnsupportedOperation = errors.New("dual: unsupported operation")
)

// Error describes the precondition violated by an operation.
type Error struct {
	Op     string // Operation that failed, e.g. "seed" or "asin".
	Detail string // Offending value and the violated constraint.
	Err    error  // One of the sentinel errors above.
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (%s)", e.Err, e.Op)
	}
	return fmt.Sprintf("%v (%s): %s", e.Err, e.Op, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(op string, kind error, format string, a ...any) error {
	return &Error{Op: op, Err: kind, Detail: fmt.Sprintf(format, a...)}
}

// reop relabels a dual error raised by an inner computation with the outer operation.
func reop(op string, err error) error {
	var de *Error
	if errors.As(err, &de) {
		return &Error{Op: op, Err: de.Err, Detail: de.Detail}
	}
	return err
}
