package query

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// MaxDepth bounds the nesting of And/Or nodes accepted by Parse and Validate.
const MaxDepth = 64

// Parse decodes a filter document.
func Parse(data []byte) (*Query, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, formatError("query", rawFragment(data), "malformed JSON: "+err.Error())
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, formatError("query", rawFragment(data), "trailing data after filter object")
	}
	return ParseValueOf(doc)
}

// ParseString is Parse for string input.
func ParseString(s string) (*Query, error) { return Parse([]byte(s)) }

// ParseValueOf builds a Query from an already decoded JSON value, as
// produced by a decoder with UseNumber enabled. Plain float64 numbers no
// longer carry their literal form, so Number accepts any of them and
// Integer accepts the integral ones.
func ParseValueOf(doc any) (*Query, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, formatError("query", doc, "filter must be an object")
	}

	q := &Query{}
	for _, key := range sortedKeys(obj) {
		var slot **Node
		switch key {
		case "x":
			slot = &q.X
		case "y":
			slot = &q.Y
		case "z":
			slot = &q.Z
		default:
			return nil, valueError(key, obj[key], "unknown axis")
		}
		n, err := parseNode(key, obj[key], 0)
		if err != nil {
			return nil, err
		}
		*slot = &n
	}
	return q, nil
}

func parseNode(parent string, v any, depth int) (Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Node{}, formatError(parent, v, "query type must be an object")
	}
	if len(obj) != 1 {
		return Node{}, formatError(parent, v, "query type must have exactly one key")
	}

	var key string
	var body any
	for k, b := range obj {
		key, body = k, b
	}

	switch key {
	case "no_op":
		if _, ok := body.(map[string]any); !ok {
			return Node{}, valueError(key, body, "no_op takes an empty object")
		}
		return NoOp(), nil

	case "include", "exclude":
		c, err := parseClause(key, body)
		if err != nil {
			return Node{}, err
		}
		kind := KindInclude
		if key == "exclude" {
			kind = KindExclude
		}
		return Node{Kind: kind, Clause: c}, nil

	case "and", "or":
		arr, ok := body.([]any)
		if !ok {
			return Node{}, valueError(key, body, "expected an array of query types")
		}
		if depth+1 > MaxDepth {
			return Node{}, formatError(key, body, "nesting deeper than "+strconv.Itoa(MaxDepth))
		}
		children := make([]Node, 0, len(arr))
		for _, elem := range arr {
			child, err := parseNode(key, elem, depth+1)
			if err != nil {
				return Node{}, err
			}
			children = append(children, child)
		}
		kind := KindAnd
		if key == "or" {
			kind = KindOr
		}
		return Node{Kind: kind, Children: children}, nil

	default:
		return Node{}, valueError(key, obj, "unknown query type")
	}
}

func parseClause(field string, v any) (Clause, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Clause{}, formatError(field, v, "clause must be an object")
	}
	rawSub, ok := obj["sub_type"]
	if !ok {
		return Clause{}, formatError("sub_type", obj, "missing field")
	}
	rawOp, ok := obj["operator"]
	if !ok {
		return Clause{}, formatError("operator", obj, "missing field")
	}
	sub, err := parseSubType(rawSub)
	if err != nil {
		return Clause{}, err
	}
	op, err := parseOperator(rawOp)
	if err != nil {
		return Clause{}, err
	}
	return Clause{SubType: sub, Operator: op}, nil
}

func parseSubType(v any) (SubType, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return SubType{}, formatError("sub_type", v, "sub_type must be an object")
	}
	name, err := requireString(obj, "name")
	if err != nil {
		return SubType{}, err
	}
	rawValue, hasValue := obj["value"]

	switch name {
	case "Value":
		rawType, ok := obj["type"]
		if !ok {
			return SubType{}, formatError("type", obj, "missing field")
		}
		typ, ok := rawType.(string)
		if !ok {
			return SubType{}, valueError("type", rawType, "expected a string")
		}
		if !hasValue {
			return SubType{}, formatError("value", obj, "missing field")
		}
		cv, err := parseComparisonValue(typ, rawType, rawValue)
		if err != nil {
			return SubType{}, err
		}
		return SubType{Kind: SubValue, Value: cv}, nil

	case "Statistic":
		if !hasValue {
			return SubType{}, formatError("value", obj, "missing field")
		}
		stat, ok := rawValue.(string)
		if !ok {
			return SubType{}, valueError("value", rawValue, "statistic name must be a string")
		}
		return Statistic(stat), nil

	default:
		return SubType{}, valueError("name", obj["name"], "unknown sub_type")
	}
}

func parseComparisonValue(typ string, rawType, raw any) (ComparisonValue, error) {
	switch typ {
	case "Number":
		f, ok := fractionalNumber(raw)
		if !ok {
			return ComparisonValue{}, valueError("value", raw, "Number requires a fractional JSON number")
		}
		return ComparisonValue{Type: ValueNumber, Number: f}, nil
	case "Integer":
		u, ok := integerNumber(raw)
		if !ok {
			return ComparisonValue{}, valueError("value", raw, "Integer requires a non-negative JSON integer")
		}
		return ComparisonValue{Type: ValueInteger, Integer: u}, nil
	case "String":
		s, ok := raw.(string)
		if !ok {
			return ComparisonValue{}, valueError("value", raw, "String requires a JSON string")
		}
		return ComparisonValue{Type: ValueString, String: s}, nil
	default:
		return ComparisonValue{}, valueError("type", rawType, "unknown value type")
	}
}

func parseOperator(v any) (Operator, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, formatError("operator", v, "operator must be an object")
	}
	name, err := requireString(obj, "name")
	if err != nil {
		return 0, err
	}
	op, ok := OperatorByName(name)
	if !ok {
		return 0, valueError("name", obj["name"], "unknown operator")
	}
	return op, nil
}

func requireString(obj map[string]any, field string) (string, error) {
	raw, ok := obj[field]
	if !ok {
		return "", formatError(field, obj, "missing field")
	}
	s, ok := raw.(string)
	if !ok {
		return "", valueError(field, raw, "expected a string")
	}
	return s, nil
}

// fractionalNumber accepts a JSON number written with a fraction or an
// exponent. 5.0 and 5e0 are Numbers; 5 is not.
func fractionalNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		s := n.String()
		if !strings.ContainsAny(s, ".eE") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

// integerNumber accepts a JSON integer literal in the uint64 range.
func integerNumber(raw any) (uint64, bool) {
	switch n := raw.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 || n >= 1<<64 || n != float64(uint64(n)) {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawFragment is document text reported as-is.
type rawFragment []byte

func fragmentOf(v any) string {
	if r, ok := v.(rawFragment); ok {
		return string(r)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return string(b)
}
