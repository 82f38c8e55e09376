package cars

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

var ErrInvalidFilter = errors.New("cars: invalid filter")

// field is a Car field that filters can refer to.
type field struct {
	ident string
	index int
	kind  reflect.Kind
}

var carFields = sync.OnceValue(func() []field {
	t := reflect.TypeOf(Car{})
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fields = append(fields, field{ident: toSnake(f.Name), index: i, kind: f.Type.Kind()})
	}
	return fields
})

// FilterFields returns the identifiers usable in a filter, in field order.
func FilterFields() []string {
	fields := carFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.ident
	}
	return names
}

var declarations = sync.OnceValues(func() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for _, f := range carFields() {
		switch f.kind {
		case reflect.String:
			opts = append(opts, filtering.DeclareIdent(f.ident, filtering.TypeString))
		case reflect.Float64:
			opts = append(opts, filtering.DeclareIdent(f.ident, filtering.TypeFloat))
		default:
			return nil, fmt.Errorf("unsupported field type for %s: %s", f.ident, f.kind)
		}
	}
	return filtering.NewDeclarations(opts...)
})

// Filter is a parsed and type checked filter expression. The zero Filter
// matches every car.
type Filter struct {
	source string
	expr   *expr.Expr
}

// ParseFilter parses an AIP-160 filter over the identifiers of FilterFields,
// for example:
//
//	brand = "Skoda" AND displacement >= 1.6
//	color = "red" OR NOT country = "usa"
//
// String comparisons ignore case. A blank filter matches every car.
func ParseFilter(s string) (Filter, error) {
	if strings.TrimSpace(s) == "" {
		return Filter{}, nil
	}

	decls, err := declarations()
	if err != nil {
		return Filter{}, err
	}

	parsed, err := filtering.ParseFilterString(s, decls)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return Filter{source: s, expr: parsed.CheckedExpr.GetExpr()}, nil
}

func (f Filter) String() string {
	return f.source
}

// Match reports whether c satisfies f. Evaluation errors count as no match.
func (f Filter) Match(c Car) bool {
	ok, err := f.Eval(c)
	return err == nil && ok
}

// Eval evaluates f against c.
func (f Filter) Eval(c Car) (bool, error) {
	return evaluate(f.expr, resolverFor(c))
}

// resolver returns the value of a filter identifier.
type resolver func(ident string) (any, bool)

func resolverFor(c Car) resolver {
	v := reflect.ValueOf(c)
	return func(ident string) (any, bool) {
		for _, f := range carFields() {
			if f.ident != ident {
				continue
			}
			fv := v.Field(f.index)
			switch f.kind {
			case reflect.String:
				return fv.String(), true
			case reflect.Float64:
				return fv.Float(), true
			}
		}
		return nil, false
	}
}

func evaluate(e *expr.Expr, resolve resolver) (bool, error) {
	if e == nil {
		return true, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return evalCall(kind.CallExpr, resolve)
	default:
		return false, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func evalCall(call *expr.Expr_Call, resolve resolver) (bool, error) {
	switch call.Function {
	case "_&&_", "AND", "FUZZY":
		return evalAnd(call.Args, resolve)
	case "_||_", "OR":
		return evalOr(call.Args, resolve)
	case "NOT", "-", "!_":
		if len(call.Args) != 1 {
			return false, fmt.Errorf("NOT requires 1 argument")
		}
		ok, err := evaluate(call.Args[0], resolve)
		return !ok, err
	case ":":
		return evalHas(call.Args, resolve)
	case "_==_", "=":
		return evalCompare(call.Args, resolve, "=")
	case "_!=_", "!=":
		return evalCompare(call.Args, resolve, "!=")
	case "_<_", "<":
		return evalCompare(call.Args, resolve, "<")
	case "_<=_", "<=":
		return evalCompare(call.Args, resolve, "<=")
	case "_>_", ">":
		return evalCompare(call.Args, resolve, ">")
	case "_>=_", ">=":
		return evalCompare(call.Args, resolve, ">=")
	default:
		return false, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func evalAnd(args []*expr.Expr, resolve resolver) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("AND requires 2 arguments")
	}
	left, err := evaluate(args[0], resolve)
	if err != nil || !left {
		return left, err
	}
	return evaluate(args[1], resolve)
}

func evalOr(args []*expr.Expr, resolve resolver) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("OR requires 2 arguments")
	}
	left, err := evaluate(args[0], resolve)
	if err != nil {
		return false, err
	}
	if left {
		return true, nil
	}
	return evaluate(args[1], resolve)
}

func evalHas(args []*expr.Expr, resolve resolver) (bool, error) {
	left, right, err := operands(args, resolve)
	if err != nil {
		return false, err
	}
	l, lok := left.(string)
	r, rok := right.(string)
	if !lok || !rok {
		return false, fmt.Errorf("':' requires strings, got %T and %T", left, right)
	}
	return strings.Contains(strings.ToLower(l), strings.ToLower(r)), nil
}

func evalCompare(args []*expr.Expr, resolve resolver, op string) (bool, error) {
	left, right, err := operands(args, resolve)
	if err != nil {
		return false, err
	}

	cmp, err := compareValues(left, right)
	if err != nil {
		return false, err
	}

	switch op {
	case "=":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator: %s", op)
	}
}

// operands resolves a binary call whose first argument is an identifier and
// whose second is a constant.
func operands(args []*expr.Expr, resolve resolver) (left, right any, err error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("comparison requires 2 arguments")
	}

	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return nil, nil, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	left, ok = resolve(ident.IdentExpr.GetName())
	if !ok {
		return nil, nil, fmt.Errorf("unknown field: %s", ident.IdentExpr.GetName())
	}

	c, ok := args[1].GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return nil, nil, fmt.Errorf("expected constant, got %T", args[1].GetExprKind())
	}
	right, err = constValue(c.ConstExpr)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func constValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return float64(kind.Int64Value), nil
	case *expr.Constant_Uint64Value:
		return float64(kind.Uint64Value), nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func compareValues(left, right any) (int, error) {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, fmt.Errorf("type mismatch: string vs %T", right)
		}
		return strings.Compare(strings.ToLower(l), strings.ToLower(r)), nil
	case float64:
		r, ok := right.(float64)
		if !ok {
			return 0, fmt.Errorf("type mismatch: number vs %T", right)
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("unsupported value type: %T", left)
	}
}
