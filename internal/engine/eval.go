package engine

import (
	"fmt"
	"strings"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/types"
)

// scope resolves column references during evaluation. A nil scope means
// constant context (SELECT without FROM).
type scope struct {
	names []string
	typs  []*types.DataType
	row   []types.Datum
}

func (sc *scope) lookup(name string) (int, bool) {
	if sc == nil {
		return 0, false
	}
	for i, n := range sc.names {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// evalExpr evaluates an expression against the current row.
func evalExpr(e bendsql.Expr, sc *scope) (types.Datum, error) {
	switch ex := e.(type) {
	case *bendsql.Literal:
		return ex.Value, nil

	case *bendsql.ColumnRef:
		idx, ok := sc.lookup(ex.Name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", ex.Name)
		}
		return sc.row[idx], nil

	case *bendsql.FuncCall:
		if ex.Name == "typeof" {
			return evalTypeof(ex, sc)
		}
		fn, ok := builtinFuncs[ex.Name]
		if !ok || fn == nil {
			return nil, fmt.Errorf("unknown function %q", ex.Name)
		}
		args := make([]types.Datum, len(ex.Args))
		for i, a := range ex.Args {
			v, err := evalExpr(a, sc)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return fn(args)

	case *bendsql.BinaryExpr:
		return evalBinary(ex, sc)

	case *bendsql.UnaryExpr:
		return evalUnary(ex, sc)

	case *bendsql.CastExpr:
		v, err := evalExpr(ex.Expr, sc)
		if err != nil {
			return nil, err
		}
		// Explicit casts always tolerate NULL input.
		if v == nil {
			return nil, nil
		}
		return types.Cast(v, ex.Type)

	case *bendsql.ArrayExpr:
		out := make([]types.Datum, len(ex.Elems))
		for i, elem := range ex.Elems {
			v, err := evalExpr(elem, sc)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *bendsql.IndexExpr:
		base, err := evalExpr(ex.Expr, sc)
		if err != nil {
			return nil, err
		}
		idx, err := evalExpr(ex.Index, sc)
		if err != nil {
			return nil, err
		}
		return evalGet([]types.Datum{base, idx})

	case *bendsql.IsNullExpr:
		v, err := evalExpr(ex.Expr, sc)
		if err != nil {
			return nil, err
		}
		if ex.Not {
			return v != nil, nil
		}
		return v == nil, nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

// evalTypeof resolves the static type of its argument; evaluation is not
// needed, only inference.
func evalTypeof(ex *bendsql.FuncCall, sc *scope) (types.Datum, error) {
	if len(ex.Args) != 1 {
		return nil, fmt.Errorf("typeof expects 1 argument, got %d", len(ex.Args))
	}
	t, err := inferType(ex.Args[0], sc)
	if err != nil {
		return nil, err
	}
	return t.String(), nil
}

func evalBinary(ex *bendsql.BinaryExpr, sc *scope) (types.Datum, error) {
	left, err := evalExpr(ex.Left, sc)
	if err != nil {
		return nil, err
	}

	// AND/OR short-circuit on the left operand.
	switch ex.Op {
	case bendsql.TOKEN_AND:
		if lb, ok := left.(bool); ok && !lb {
			return false, nil
		}
	case bendsql.TOKEN_OR:
		if lb, ok := left.(bool); ok && lb {
			return true, nil
		}
	}

	right, err := evalExpr(ex.Right, sc)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case bendsql.TOKEN_AND, bendsql.TOKEN_OR:
		return evalLogical(ex.Op, left, right)

	case bendsql.TOKEN_DPIPE:
		return evalConcat([]types.Datum{left, right})

	case bendsql.TOKEN_EQ, bendsql.TOKEN_NE, bendsql.TOKEN_LT,
		bendsql.TOKEN_GT, bendsql.TOKEN_LE, bendsql.TOKEN_GE:
		if left == nil || right == nil {
			return nil, nil
		}
		cmp, err := compareDatums(left, right)
		if err != nil {
			return nil, err
		}
		switch ex.Op {
		case bendsql.TOKEN_EQ:
			return cmp == 0, nil
		case bendsql.TOKEN_NE:
			return cmp != 0, nil
		case bendsql.TOKEN_LT:
			return cmp < 0, nil
		case bendsql.TOKEN_GT:
			return cmp > 0, nil
		case bendsql.TOKEN_LE:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}

	case bendsql.TOKEN_PLUS, bendsql.TOKEN_MINUS, bendsql.TOKEN_STAR,
		bendsql.TOKEN_SLASH, bendsql.TOKEN_MOD:
		if left == nil || right == nil {
			return nil, nil
		}
		return evalArith(ex.Op, left, right)
	}

	return nil, fmt.Errorf("unsupported binary operator %s", ex.Op)
}

// evalLogical applies three-valued AND/OR: a FALSE operand forces AND to
// FALSE and a TRUE operand forces OR to TRUE even when the other side is
// NULL; NULL results only when the known operands cannot decide.
func evalLogical(op bendsql.TokenType, left, right types.Datum) (types.Datum, error) {
	lb, lNull, err := boolOperand(left)
	if err != nil {
		return nil, err
	}
	rb, rNull, err := boolOperand(right)
	if err != nil {
		return nil, err
	}

	if op == bendsql.TOKEN_AND {
		if (!lNull && !lb) || (!rNull && !rb) {
			return false, nil
		}
		if lNull || rNull {
			return nil, nil
		}
		return true, nil
	}
	if (!lNull && lb) || (!rNull && rb) {
		return true, nil
	}
	if lNull || rNull {
		return nil, nil
	}
	return false, nil
}

func boolOperand(d types.Datum) (val, isNull bool, err error) {
	if d == nil {
		return false, true, nil
	}
	b, ok := d.(bool)
	if !ok {
		return false, false, fmt.Errorf("AND/OR operands must be boolean")
	}
	return b, false, nil
}

func evalUnary(ex *bendsql.UnaryExpr, sc *scope) (types.Datum, error) {
	v, err := evalExpr(ex.Expr, sc)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	switch ex.Op {
	case bendsql.TOKEN_MINUS:
		switch n := v.(type) {
		case int64:
			return -n, nil
		case uint64:
			return -int64(n), nil
		case float64:
			return -n, nil
		}
		return nil, fmt.Errorf("cannot negate %T", v)
	case bendsql.TOKEN_NOT:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("NOT operand must be boolean")
		}
		return !b, nil
	}
	return nil, fmt.Errorf("unsupported unary operator %s", ex.Op)
}

// evalArith performs numeric arithmetic. Mixed integer/float operands
// promote to float; division always produces a float.
func evalArith(op bendsql.TokenType, left, right types.Datum) (types.Datum, error) {
	lf, lIsFloat, err := toNumeric(left)
	if err != nil {
		return nil, err
	}
	rf, rIsFloat, err := toNumeric(right)
	if err != nil {
		return nil, err
	}

	if lIsFloat || rIsFloat || op == bendsql.TOKEN_SLASH {
		switch op {
		case bendsql.TOKEN_PLUS:
			return lf + rf, nil
		case bendsql.TOKEN_MINUS:
			return lf - rf, nil
		case bendsql.TOKEN_STAR:
			return lf * rf, nil
		case bendsql.TOKEN_SLASH:
			if rf == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return lf / rf, nil
		case bendsql.TOKEN_MOD:
			if int64(rf) == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return float64(int64(lf) % int64(rf)), nil
		}
	}

	li, ri := int64(lf), int64(rf)
	switch op {
	case bendsql.TOKEN_PLUS:
		return li + ri, nil
	case bendsql.TOKEN_MINUS:
		return li - ri, nil
	case bendsql.TOKEN_STAR:
		return li * ri, nil
	case bendsql.TOKEN_MOD:
		if ri == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return li % ri, nil
	}
	return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
}

// toNumeric converts a datum to float64 and reports whether it was a float.
func toNumeric(d types.Datum) (float64, bool, error) {
	switch v := d.(type) {
	case int64:
		return float64(v), false, nil
	case uint64:
		return float64(v), false, nil
	case float64:
		return v, true, nil
	case bool:
		if v {
			return 1, false, nil
		}
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("%T is not numeric", d)
}

// compareDatums orders two non-null datums of compatible types.
func compareDatums(a, b types.Datum) (int, error) {
	// Numeric cross-type comparison.
	af, _, errA := toNumeric(a)
	bf, _, errB := toNumeric(b)
	if errA == nil && errB == nil {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		return strings.Compare(av, bv), nil
	case types.Date:
		bv, ok := b.(types.Date)
		if !ok {
			return 0, fmt.Errorf("cannot compare Date with %T", b)
		}
		return int(av - bv), nil
	case types.Timestamp:
		bv, ok := b.(types.Timestamp)
		if !ok {
			return 0, fmt.Errorf("cannot compare Timestamp with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case []types.Datum:
		bv, ok := b.([]types.Datum)
		if !ok {
			return 0, fmt.Errorf("cannot compare array with %T", b)
		}
		for i := 0; i < len(av) && i < len(bv); i++ {
			// NULL elements sort first.
			if av[i] == nil || bv[i] == nil {
				if av[i] == nil && bv[i] == nil {
					continue
				}
				if av[i] == nil {
					return -1, nil
				}
				return 1, nil
			}
			cmp, err := compareDatums(av[i], bv[i])
			if err != nil {
				return 0, err
			}
			if cmp != 0 {
				return cmp, nil
			}
		}
		return len(av) - len(bv), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// inferType computes the static result type of an expression against the
// scope's schema. It mirrors evalExpr so empty results still carry types.
func inferType(e bendsql.Expr, sc *scope) (*types.DataType, error) {
	switch ex := e.(type) {
	case *bendsql.Literal:
		return types.TypeOf(ex.Value), nil

	case *bendsql.ColumnRef:
		idx, ok := sc.lookup(ex.Name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", ex.Name)
		}
		return sc.typs[idx], nil

	case *bendsql.FuncCall:
		return inferFuncType(ex, sc)

	case *bendsql.BinaryExpr:
		return inferBinaryType(ex, sc)

	case *bendsql.UnaryExpr:
		if ex.Op == bendsql.TOKEN_NOT {
			return types.New(types.KindBoolean), nil
		}
		inner, err := inferType(ex.Expr, sc)
		if err != nil {
			return nil, err
		}
		if inner.Kind.IsInteger() {
			return &types.DataType{Kind: types.KindInt64, Nullable: inner.Nullable}, nil
		}
		return inner, nil

	case *bendsql.CastExpr:
		return ex.Type, nil

	case *bendsql.ArrayExpr:
		if len(ex.Elems) == 0 {
			return types.NewArray(&types.DataType{Kind: types.KindNull, Nullable: true}), nil
		}
		var elem *types.DataType
		for _, el := range ex.Elems {
			t, err := inferType(el, sc)
			if err != nil {
				return nil, err
			}
			if elem == nil {
				elem = t
				continue
			}
			merged, err := types.CommonType(elem, t)
			if err != nil {
				return nil, fmt.Errorf("array literal: %w", err)
			}
			elem = merged
		}
		return types.NewArray(elem), nil

	case *bendsql.IndexExpr:
		base, err := inferType(ex.Expr, sc)
		if err != nil {
			return nil, err
		}
		if base.Kind != types.KindArray {
			return nil, fmt.Errorf("cannot index %s", base)
		}
		return base.Elem.Wrap(), nil

	case *bendsql.IsNullExpr:
		return types.New(types.KindBoolean), nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func inferFuncType(ex *bendsql.FuncCall, sc *scope) (*types.DataType, error) {
	argTypes := make([]*types.DataType, len(ex.Args))
	nullable := false
	for i, a := range ex.Args {
		t, err := inferType(a, sc)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
		nullable = nullable || t.Nullable
	}

	switch ex.Name {
	case "concat", "array_concat":
		if len(argTypes) == 0 {
			return nil, fmt.Errorf("concat requires at least one argument")
		}
		allArrays := true
		for _, t := range argTypes {
			if t.Kind != types.KindArray {
				allArrays = false
				break
			}
		}
		if allArrays {
			elem := argTypes[0].Elem
			for _, t := range argTypes[1:] {
				merged, err := types.CommonType(elem, t.Elem)
				if err != nil {
					return nil, fmt.Errorf("concat: %w", err)
				}
				elem = merged
			}
			return &types.DataType{Kind: types.KindArray, Nullable: nullable, Elem: elem}, nil
		}
		return &types.DataType{Kind: types.KindString, Nullable: nullable}, nil

	case "length":
		return &types.DataType{Kind: types.KindUInt64, Nullable: nullable}, nil

	case "get":
		if len(argTypes) != 2 || argTypes[0].Kind != types.KindArray {
			return nil, fmt.Errorf("get expects (array, index)")
		}
		return argTypes[0].Elem.Wrap(), nil

	case "upper", "lower", "to_string":
		return &types.DataType{Kind: types.KindString, Nullable: nullable}, nil

	case "typeof":
		return types.New(types.KindString), nil
	}
	return nil, fmt.Errorf("unknown function %q", ex.Name)
}

func inferBinaryType(ex *bendsql.BinaryExpr, sc *scope) (*types.DataType, error) {
	left, err := inferType(ex.Left, sc)
	if err != nil {
		return nil, err
	}
	right, err := inferType(ex.Right, sc)
	if err != nil {
		return nil, err
	}
	nullable := left.Nullable || right.Nullable

	switch ex.Op {
	case bendsql.TOKEN_AND, bendsql.TOKEN_OR,
		bendsql.TOKEN_EQ, bendsql.TOKEN_NE, bendsql.TOKEN_LT,
		bendsql.TOKEN_GT, bendsql.TOKEN_LE, bendsql.TOKEN_GE:
		return &types.DataType{Kind: types.KindBoolean, Nullable: nullable}, nil

	case bendsql.TOKEN_DPIPE:
		if left.Kind == types.KindArray && right.Kind == types.KindArray {
			elem, err := types.CommonType(left.Elem, right.Elem)
			if err != nil {
				return nil, err
			}
			return &types.DataType{Kind: types.KindArray, Nullable: nullable, Elem: elem}, nil
		}
		return &types.DataType{Kind: types.KindString, Nullable: nullable}, nil

	case bendsql.TOKEN_SLASH:
		return &types.DataType{Kind: types.KindFloat64, Nullable: nullable}, nil

	case bendsql.TOKEN_PLUS, bendsql.TOKEN_MINUS, bendsql.TOKEN_STAR, bendsql.TOKEN_MOD:
		return types.CommonType(left, right)
	}
	return nil, fmt.Errorf("unsupported binary operator %s", ex.Op)
}
