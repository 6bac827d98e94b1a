package safe

import (
	"fmt"
	"reflect"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
)

// MustNotNil panics when a required dependency is nil, typed nil included.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// SafeGo runs f on its own goroutine; a panic is logged instead of killing
// the process.
func SafeGo(name string, f func()) {
	go func() {
		defer Recover(name)
		f()
	}()
}

// Recover logs a recovered panic; use it deferred.
func Recover(name string) {
	if r := recover(); r != nil {
		logger.Error("[SafeGo] panic recovered", zap.String("goroutine", name), zap.Error(errs.ErrPanic(r)))
	}
}
