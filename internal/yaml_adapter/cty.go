package yaml_adapter

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// toCty converts a YAML node into a cty value. Mappings become objects and
// sequences become tuples. An absent node yields cty.NilVal.
func toCty(n *yaml.Node) (cty.Value, error) {
	if n == nil || n.Kind == 0 {
		return cty.NilVal, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return toCty(n.Content[0])
	case yaml.AliasNode:
		return toCty(n.Alias)
	case yaml.ScalarNode:
		return scalarToCty(n)
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := toCty(c)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = v
		}
		return cty.TupleVal(elems), nil
	case yaml.MappingNode:
		attrs := make(map[string]cty.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := toCty(n.Content[i+1])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[n.Content[i].Value] = v
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func scalarToCty(n *yaml.Node) (cty.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return cty.NilVal, err
		}
		return cty.NumberIntVal(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return cty.NilVal, err
		}
		if math.IsNaN(f) {
			return cty.NilVal, fmt.Errorf("line %d: NaN is not a valid parameter value", n.Line)
		}
		return cty.NumberFloatVal(f), nil
	}
	return cty.StringVal(n.Value), nil
}

// mappingPairs returns the key and value nodes of a mapping in file order.
func mappingPairs(n *yaml.Node) ([]string, []*yaml.Node, error) {
	if n.Kind == 0 {
		return nil, nil, nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	keys := make([]string, 0, len(n.Content)/2)
	vals := make([]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
		vals = append(vals, n.Content[i+1])
	}
	return keys, vals, nil
}
