package function

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/Masterminds/sprig/v3"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// SprigLibrary exposes the sprig template functions under the "sprig:"
// prefix. Only functions whose parameters can be built from strings are
// included, e.g. sprig:trunc(5, 'Hello World') or sprig:sha256sum('x').
func SprigLibrary() *Library {
	lib := NewLibrary("sprig", "sprig:")

	for name, raw := range sprig.TxtFuncMap() {
		fn := reflect.ValueOf(raw)
		if !isAdaptable(fn.Type()) {
			continue
		}
		lib.Register(name, adaptSprig(name, fn), "sprig template function")
	}

	return lib
}

func isAdaptable(t reflect.Type) bool {
	if t.Kind() != reflect.Func {
		return false
	}
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if t.IsVariadic() && i == t.NumIn()-1 {
			in = in.Elem()
		}
		if !isConvertibleKind(in) {
			return false
		}
	}

	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1).Implements(errorType)
	default:
		return false
	}
}

func isConvertibleKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int64, reflect.Int32,
		reflect.Uint, reflect.Uint64, reflect.Uint32,
		reflect.Float64, reflect.Float32:
		return true
	case reflect.Interface:
		return t.NumMethod() == 0
	default:
		return false
	}
}

func convertParam(param string, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(param).Convert(t), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(param)
		if err != nil {
			return reflect.Value{}, usageError("%q is not a boolean", param)
		}
		return reflect.ValueOf(b).Convert(t), nil
	case reflect.Int, reflect.Int64, reflect.Int32:
		n, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return reflect.Value{}, usageError("%q is not an integer", param)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Uint, reflect.Uint64, reflect.Uint32:
		n, err := strconv.ParseUint(param, 10, 64)
		if err != nil {
			return reflect.Value{}, usageError("%q is not an unsigned integer", param)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Float64, reflect.Float32:
		f, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return reflect.Value{}, usageError("%q is not a number", param)
		}
		return reflect.ValueOf(f).Convert(t), nil
	default:
		return reflect.ValueOf(param), nil
	}
}

func adaptSprig(name string, fn reflect.Value) Func {
	t := fn.Type()

	return func(params []string) (result string, err error) {
		fixed := t.NumIn()
		if t.IsVariadic() {
			fixed--
			if len(params) < fixed {
				return "", usageError("%s expects at least %d parameters, got %d", name, fixed, len(params))
			}
		} else if len(params) != fixed {
			return "", usageError("%s expects %d parameters, got %d", name, fixed, len(params))
		}

		args := make([]reflect.Value, len(params))
		for i, p := range params {
			in := variadicParamType(t, i)
			if args[i], err = convertParam(p, in); err != nil {
				return "", err
			}
		}

		defer func() {
			if r := recover(); r != nil {
				err = usageError("%s panicked: %v", name, r)
			}
		}()

		out := fn.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return "", out[1].Interface().(error)
		}
		return fmt.Sprint(out[0].Interface()), nil
	}
}

func variadicParamType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}
