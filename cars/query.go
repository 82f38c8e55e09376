package cars

import (
	"reflect"
	"strconv"
	"strings"
)

// ExampleFilter builds the filter expression SearchByExample runs: one
// equality term per non-zero field of example, joined with AND when matchAll
// is set and with OR otherwise. An all-zero example yields "".
func ExampleFilter(example Car, matchAll bool) string {
	v := reflect.ValueOf(example)

	var terms []string
	for _, f := range carFields() {
		fv := v.Field(f.index)
		if fv.IsZero() {
			continue
		}
		switch f.kind {
		case reflect.String:
			terms = append(terms, f.ident+" = "+strconv.Quote(fv.String()))
		case reflect.Float64:
			terms = append(terms, f.ident+" = "+formatFloat(fv.Float()))
		}
	}

	op := " OR "
	if matchAll {
		op = " AND "
	}
	return strings.Join(terms, op)
}

// formatFloat always keeps a decimal point so the literal parses as a double.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
