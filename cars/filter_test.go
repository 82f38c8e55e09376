package cars

import (
	"errors"
	"testing"

	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

var skoda = Car{
	NumberPlate:  "ABC123",
	Brand:        "Skoda",
	Displacement: 1.4,
	Color:        ColorRed,
	Type:         TypeCombi,
	Country:      CountryCzechRepublic,
}

func TestParseFilter_Match(t *testing.T) {
	tests := []struct {
		filter string
		want   bool
	}{
		{``, true},
		{`   `, true},
		{`number_plate = "ABC123"`, true},
		{`brand = "Skoda"`, true},
		{`brand = "SKODA"`, true},
		{`brand != "Skoda"`, false},
		{`brand = "Volvo"`, false},
		{`displacement > 1.0`, true},
		{`displacement >= 1.4`, true},
		{`displacement < 1.4`, false},
		{`displacement <= 1.4`, true},
		{`displacement = 1.4`, true},
		{`color = "red" AND type = "combi"`, true},
		{`color = "blue" AND brand = "Skoda"`, false},
		{`color = "blue" OR country = "czech republic"`, true},
		{`color = "blue" OR country = "usa"`, false},
		{`NOT color = "red"`, false},
		{`NOT color = "blue"`, true},
		{`(color = "blue" OR color = "red") AND displacement < 2.0`, true},
		{`brand > "Audi" AND brand < "Volvo"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f, err := ParseFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseFilter(%q) failed: %v", tt.filter, err)
			}
			got, err := f.Eval(skoda)
			if err != nil {
				t.Fatalf("Eval() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("filter %q: got %v, want %v", tt.filter, got, tt.want)
			}
			if f.Match(skoda) != tt.want {
				t.Errorf("Match disagrees with Eval for %q", tt.filter)
			}
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	tests := []string{
		`invalid @@@ filter`,
		`mileage > 1000.0`,
		`brand = `,
		`displacement = "big"`,
	}

	for _, filter := range tests {
		t.Run(filter, func(t *testing.T) {
			_, err := ParseFilter(filter)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("expected ErrInvalidFilter for %q, got %v", filter, err)
			}
		})
	}
}

func TestFilter_String(t *testing.T) {
	f, err := ParseFilter(`brand = "Skoda"`)
	if err != nil {
		t.Fatalf("ParseFilter() failed: %v", err)
	}
	if f.String() != `brand = "Skoda"` {
		t.Errorf("expected source filter, got %q", f.String())
	}
	if (Filter{}).String() != "" {
		t.Error("zero filter should have an empty source")
	}
}

func ident(name string) *expr.Expr {
	return &expr.Expr{ExprKind: &expr.Expr_IdentExpr{IdentExpr: &expr.Expr_Ident{Name: name}}}
}

func str(s string) *expr.Expr {
	return &expr.Expr{ExprKind: &expr.Expr_ConstExpr{ConstExpr: &expr.Constant{
		ConstantKind: &expr.Constant_StringValue{StringValue: s},
	}}}
}

func integer(i int64) *expr.Expr {
	return &expr.Expr{ExprKind: &expr.Expr_ConstExpr{ConstExpr: &expr.Constant{
		ConstantKind: &expr.Constant_Int64Value{Int64Value: i},
	}}}
}

func call(fn string, args ...*expr.Expr) *expr.Expr {
	return &expr.Expr{ExprKind: &expr.Expr_CallExpr{CallExpr: &expr.Expr_Call{Function: fn, Args: args}}}
}

func TestEvaluate_Expressions(t *testing.T) {
	resolve := resolverFor(skoda)

	tests := []struct {
		name    string
		e       *expr.Expr
		want    bool
		wantErr bool
	}{
		{name: "has substring", e: call(":", ident("brand"), str("kod")), want: true},
		{name: "has ignores case", e: call(":", ident("country"), str("CZECH")), want: true},
		{name: "has missing", e: call(":", ident("brand"), str("volvo")), want: false},
		{name: "fuzzy and", e: call("FUZZY", call("=", ident("color"), str("red")), call("=", ident("type"), str("combi"))), want: true},
		{name: "minus negates", e: call("-", call("=", ident("color"), str("red"))), want: false},
		{name: "integer constant", e: call(">", ident("displacement"), integer(1)), want: true},
		{name: "unknown field", e: call("=", ident("mileage"), str("x")), wantErr: true},
		{name: "type mismatch", e: call("=", ident("brand"), integer(1)), wantErr: true},
		{name: "has on number", e: call(":", ident("displacement"), str("1")), wantErr: true},
		{name: "unsupported function", e: call("matches", ident("brand"), str("S.*")), wantErr: true},
		{name: "bare identifier", e: ident("brand"), wantErr: true},
		{name: "constant on the left", e: call("=", str("Skoda"), ident("brand")), wantErr: true},
		{name: "wrong arity", e: call("AND", call("=", ident("color"), str("red"))), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluate(tt.e, resolve)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_MatchTreatsErrorsAsMismatch(t *testing.T) {
	f := Filter{expr: call("=", ident("mileage"), str("x"))}
	if f.Match(skoda) {
		t.Error("evaluation error must not match")
	}
}
