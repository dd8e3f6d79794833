package engine

import (
	"fmt"
	"strings"

	"github.com/albinkc/databend/internal/types"
)

// scalarFunc evaluates one call with already-evaluated arguments.
type scalarFunc func(args []types.Datum) (types.Datum, error)

// builtinFuncs is the scalar function registry. Names are lower-cased by
// the parser.
var builtinFuncs = map[string]scalarFunc{
	"concat":       evalConcat,
	"array_concat": evalConcat,
	"length":       evalLength,
	"get":          evalGet,
	"upper":        evalUpper,
	"lower":        evalLower,
	"typeof":       nil, // handled in the evaluator, needs the static type
	"to_string":    evalToString,
}

// evalConcat implements concat over strings and over arrays.
//
// String form: concat(s1, s2, ...) joins the operands; any NULL operand
// makes the result NULL. Array form: when every non-null operand is an
// array, the arrays are concatenated element-wise in argument order.
func evalConcat(args []types.Datum) (types.Datum, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("concat requires at least one argument")
	}

	arrays := true
	for _, a := range args {
		if a == nil {
			return nil, nil
		}
		if _, ok := a.([]types.Datum); !ok {
			arrays = false
		}
	}

	if arrays {
		var out []types.Datum
		for _, a := range args {
			out = append(out, a.([]types.Datum)...)
		}
		if out == nil {
			out = []types.Datum{}
		}
		return out, nil
	}

	var b strings.Builder
	for _, a := range args {
		s, err := types.Cast(a, types.New(types.KindString))
		if err != nil {
			return nil, fmt.Errorf("concat argument: %w", err)
		}
		b.WriteString(s.(string))
	}
	return b.String(), nil
}

// evalLength returns the element count of an array or the byte length of
// a string.
func evalLength(args []types.Datum) (types.Datum, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []types.Datum:
		return uint64(len(v)), nil
	case string:
		return uint64(len(v)), nil
	}
	return nil, fmt.Errorf("length does not accept %T", args[0])
}

// evalGet returns the 1-based element of an array, NULL when out of range.
func evalGet(args []types.Datum) (types.Datum, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("get expects 2 arguments, got %d", len(args))
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	arr, ok := args[0].([]types.Datum)
	if !ok {
		return nil, fmt.Errorf("get expects an array, got %T", args[0])
	}
	idx, err := types.Cast(args[1], types.New(types.KindInt64))
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}
	i := idx.(int64)
	if i < 1 || i > int64(len(arr)) {
		return nil, nil
	}
	return arr[i-1], nil
}

func evalUpper(args []types.Datum) (types.Datum, error) {
	return stringUnary("upper", args, strings.ToUpper)
}

func evalLower(args []types.Datum) (types.Datum, error) {
	return stringUnary("lower", args, strings.ToLower)
}

func stringUnary(name string, args []types.Datum, fn func(string) string) (types.Datum, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s expects a string, got %T", name, args[0])
	}
	return fn(s), nil
}

// evalToString renders any value the way result cells are rendered.
func evalToString(args []types.Datum) (types.Datum, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("to_string expects 1 argument, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	return types.Render(args[0]), nil
}
