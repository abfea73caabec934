package query

import (
	"errors"
	"strings"
	"testing"
)

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want *Query
	}{
		{
			name: "empty",
			json: `{}`,
			want: &Query{},
		},
		{
			name: "no_op",
			json: `{"y":{"no_op":{}}}`,
			want: &Query{Y: Ptr(NoOp())},
		},
		{
			name: "include number",
			json: `{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"GreaterThan"}}}}`,
			want: &Query{X: Ptr(Include(Number(5), GreaterThan))},
		},
		{
			name: "exclude integer",
			json: `{"z":{"exclude":{"sub_type":{"name":"Value","type":"Integer","value":5},"operator":{"name":"LessThan"}}}}`,
			want: &Query{Z: Ptr(Exclude(Integer(5), LessThan))},
		},
		{
			name: "string value",
			json: `{"x":{"include":{"sub_type":{"name":"Value","type":"String","value":"apple"},"operator":{"name":"Equal"}}}}`,
			want: &Query{X: Ptr(Include(Text("apple"), Equal))},
		},
		{
			name: "statistic",
			json: `{"x":{"include":{"sub_type":{"name":"Statistic","value":"mean"},"operator":{"name":"GreaterThan"}}}}`,
			want: &Query{X: Ptr(Include(Statistic("mean"), GreaterThan))},
		},
		{
			name: "exponent number",
			json: `{"y":{"include":{"sub_type":{"name":"Value","type":"Number","value":1e3},"operator":{"name":"GreaterThanOrEqual"}}}}`,
			want: &Query{Y: Ptr(Include(Number(1000), GreaterThanOrEqual))},
		},
		{
			name: "nested and/or",
			json: `{"x":{"and":[{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"GreaterThan"}}},{"or":[{"no_op":{}},{"exclude":{"sub_type":{"name":"Statistic","value":"pct_99"},"operator":{"name":"NotEqual"}}}]}]}}`,
			want: &Query{X: Ptr(And(
				Include(Number(5), GreaterThan),
				Or(NoOp(), Exclude(Statistic("pct_99"), NotEqual)),
			))},
		},
		{
			name: "empty and",
			json: `{"x":{"and":[]}}`,
			want: &Query{X: Ptr(And())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.json)
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		kind  ErrorKind
		field string
	}{
		{"not json", `{"x":`, ParseFormat, "query"},
		{"trailing", `{} {}`, ParseFormat, "query"},
		{"root array", `[]`, ParseFormat, "query"},
		{"unknown axis", `{"w":{"no_op":{}}}`, ParseValue, "w"},
		{"query type not object", `{"x":5}`, ParseFormat, "x"},
		{"query type two keys", `{"x":{"no_op":{},"and":[]}}`, ParseFormat, "x"},
		{"query type no keys", `{"x":{}}`, ParseFormat, "x"},
		{"unknown query type", `{"x":{"maybe":{}}}`, ParseValue, "maybe"},
		{"no_op not object", `{"x":{"no_op":1}}`, ParseValue, "no_op"},
		{"and not array", `{"x":{"and":{}}}`, ParseValue, "and"},
		{"or child invalid", `{"x":{"or":[1]}}`, ParseFormat, "or"},
		{"missing sub_type", `{"x":{"include":{"operator":{"name":"GreaterThan"}}}}`, ParseFormat, "sub_type"},
		{"missing operator", `{"x":{"include":{"sub_type":{"name":"Statistic","value":"mean"}}}}`, ParseFormat, "operator"},
		{"clause not object", `{"x":{"exclude":[]}}`, ParseFormat, "exclude"},
		{"missing name", `{"x":{"include":{"sub_type":{"value":"mean"},"operator":{"name":"GreaterThan"}}}}`, ParseFormat, "name"},
		{"unknown sub_type", `{"x":{"include":{"sub_type":{"name":"Range","value":"mean"},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "name"},
		{"name not string", `{"x":{"include":{"sub_type":{"name":3,"value":"mean"},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "name"},
		{"missing type", `{"x":{"include":{"sub_type":{"name":"Value","value":5.0},"operator":{"name":"GreaterThan"}}}}`, ParseFormat, "type"},
		{"unknown type", `{"x":{"include":{"sub_type":{"name":"Value","type":"Float","value":5.0},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "type"},
		{"missing value", `{"x":{"include":{"sub_type":{"name":"Value","type":"Number"},"operator":{"name":"GreaterThan"}}}}`, ParseFormat, "value"},
		{"number given integer", `{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":5},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"number given string", `{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":"5.0"},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"integer given fraction", `{"x":{"include":{"sub_type":{"name":"Value","type":"Integer","value":5.0},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"integer negative", `{"x":{"include":{"sub_type":{"name":"Value","type":"Integer","value":-5},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"integer overflow", `{"x":{"include":{"sub_type":{"name":"Value","type":"Integer","value":18446744073709551616},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"string given number", `{"x":{"include":{"sub_type":{"name":"Value","type":"String","value":5},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"statistic not string", `{"x":{"include":{"sub_type":{"name":"Statistic","value":5},"operator":{"name":"GreaterThan"}}}}`, ParseValue, "value"},
		{"operator not object", `{"x":{"include":{"sub_type":{"name":"Statistic","value":"mean"},"operator":"GreaterThan"}}}`, ParseFormat, "operator"},
		{"operator missing name", `{"x":{"include":{"sub_type":{"name":"Statistic","value":"mean"},"operator":{}}}}`, ParseFormat, "name"},
		{"unknown operator", `{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"IsGreaterThan"}}}}`, ParseValue, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.json)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError: %v", err, err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s (%v)", pe.Kind, tt.kind, err)
			}
			if pe.FieldName != tt.field {
				t.Errorf("FieldName = %q, want %q (%v)", pe.FieldName, tt.field, err)
			}
			if pe.Fragment == "" {
				t.Error("Fragment is empty")
			}
		})
	}
}

func TestParseUnknownOperatorFragment(t *testing.T) {
	_, err := ParseString(`{"x":{"include":{"sub_type":{"name":"Value","type":"Number","value":5.0},"operator":{"name":"IsGreaterThan"}}}}`)
	if !errors.Is(err, ErrValue) {
		t.Fatalf("errors.Is(err, ErrValue) = false: %v", err)
	}
	if errors.Is(err, ErrFormat) {
		t.Error("value error also matched ErrFormat")
	}
	var pe *ParseError
	errors.As(err, &pe)
	if pe.Fragment != `"IsGreaterThan"` {
		t.Errorf("Fragment = %s", pe.Fragment)
	}
	if !strings.Contains(err.Error(), "IsGreaterThan") {
		t.Errorf("message %q lacks fragment", err.Error())
	}
}

func TestParseDepthLimit(t *testing.T) {
	deep := strings.Repeat(`{"and":[`, MaxDepth+1) + `{"no_op":{}}` + strings.Repeat(`]}`, MaxDepth+1)
	_, err := ParseString(`{"x":` + deep + `}`)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error for deep nesting, got %v", err)
	}

	ok := strings.Repeat(`{"or":[`, MaxDepth) + `{"no_op":{}}` + strings.Repeat(`]}`, MaxDepth)
	if _, err := ParseString(`{"x":` + ok + `}`); err != nil {
		t.Fatalf("nesting at MaxDepth rejected: %v", err)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var q Query
	if err := q.UnmarshalJSON([]byte(`{"y":{"no_op":{}}}`)); err != nil {
		t.Fatal(err)
	}
	if q.Y == nil || q.Y.Kind != KindNoOp {
		t.Errorf("got %s", &q)
	}
}

func TestParseValueOfFloat(t *testing.T) {
	doc := map[string]any{
		"x": map[string]any{"include": map[string]any{
			"sub_type": map[string]any{"name": "Value", "type": "Integer", "value": float64(7)},
			"operator": map[string]any{"name": "Equal"},
		}},
	}
	q, err := ParseValueOf(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Equal(&Query{X: Ptr(Include(Integer(7), Equal))}) {
		t.Errorf("got %s", q)
	}
}
