package query

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNotFinite is returned when serializing a Number that JSON cannot represent.
var ErrNotFinite = errors.New("query: number is not finite")

// MarshalJSON encodes the query in the filter wire format. Slots are
// written in x, y, z order and nil slots are omitted.
func (q *Query) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, slot := range []struct {
		key  string
		node *Node
	}{{"x", q.X}, {"y", q.Y}, {"z", q.Z}} {
		if slot.node == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(`"` + slot.key + `":`)
		if err := appendNode(&buf, slot.node, 0); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the filter wire format.
func (q *Query) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*q = *parsed
	return nil
}

// MarshalJSON encodes a single query type.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendNode(&buf, &n, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the wire form, or an error description.
func (q *Query) String() string {
	b, err := q.MarshalJSON()
	if err != nil {
		return "<invalid query: " + err.Error() + ">"
	}
	return string(b)
}

func appendNode(buf *bytes.Buffer, n *Node, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	switch n.Kind {
	case KindNoOp:
		buf.WriteString(`{"no_op":{}}`)
	case KindInclude, KindExclude:
		buf.WriteString(`{"` + n.Kind.String() + `":`)
		if err := appendClause(buf, &n.Clause); err != nil {
			return err
		}
		buf.WriteByte('}')
	case KindAnd, KindOr:
		buf.WriteString(`{"` + n.Kind.String() + `":[`)
		for i := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendNode(buf, &n.Children[i], depth+1); err != nil {
				return err
			}
		}
		buf.WriteString(`]}`)
	default:
		return fmt.Errorf("query: cannot encode node kind %s", n.Kind)
	}
	return nil
}

func appendClause(buf *bytes.Buffer, c *Clause) error {
	if !c.Operator.Valid() {
		return fmt.Errorf("query: cannot encode %s", c.Operator)
	}
	buf.WriteString(`{"sub_type":`)
	switch c.SubType.Kind {
	case SubValue:
		v := c.SubType.Value
		buf.WriteString(`{"name":"Value","type":"` + v.Type.String() + `","value":`)
		switch v.Type {
		case ValueNumber:
			s, err := formatNumber(v.Number)
			if err != nil {
				return err
			}
			buf.WriteString(s)
		case ValueInteger:
			buf.WriteString(strconv.FormatUint(v.Integer, 10))
		case ValueString:
			if err := appendString(buf, v.String); err != nil {
				return err
			}
		default:
			return fmt.Errorf("query: cannot encode %s", v.Type)
		}
		buf.WriteByte('}')
	case SubStatistic:
		buf.WriteString(`{"name":"Statistic","value":`)
		if err := appendString(buf, c.SubType.Statistic); err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("query: cannot encode sub_type kind %d", c.SubType.Kind)
	}
	buf.WriteString(`,"operator":{"name":"` + c.Operator.String() + `"}}`)
	return nil
}

// formatNumber writes f so that it always reads back as a Number:
// integral values get a ".0" suffix.
func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrNotFinite, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func appendString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
