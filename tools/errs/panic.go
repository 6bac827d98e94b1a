package errs

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrPanic turns a recovered value into an internal error with a stack; nil
// stays nil.
func ErrPanic(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return pkgerrors.WithStack(ErrInternal.WithDetail("panic: " + err.Error()))
	}
	return pkgerrors.WithStack(ErrInternal.WithDetail(fmt.Sprintf("panic: %v", r)))
}
