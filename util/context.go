package util

import (
	"context"
	"reflect"
)

var ContextValueNotFoundError = NewError("not found in context")

type ContextKey string

// LoadFromContextValue sets the value of key into target; target should be
// the pointer of the value type.
func LoadFromContextValue(ctx context.Context, key ContextKey, target interface{}) error {
	cv := ctx.Value(key)
	if cv == nil {
		return ContextValueNotFoundError.Errorf(string(key))
	}

	return InterfaceSetValue(cv, target)
}

func InterfaceSetValue(v, target interface{}) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return WrongTypeError.Errorf("target should be not nil pointer, not %T", target)
	}

	elem := value.Elem()
	vv := reflect.ValueOf(v)

	if !vv.Type().AssignableTo(elem.Type()) {
		return WrongTypeError.Errorf("expected %s, not %T", elem.Type(), v)
	}

	elem.Set(vv)

	return nil
}
