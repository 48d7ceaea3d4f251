package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var valueType = reflect.TypeOf(cty.Value{})

// MergeSharedInputs merges shared_parameters with <kind>_parameters of a
// model_inputs object. A parameter defined in both is an error.
func MergeSharedInputs(inputs cty.Value, kind string) (cty.Value, error) {
	shared := Attr(inputs, "shared_parameters")
	specific := Attr(inputs, kind+"_parameters")

	out := make(map[string]cty.Value)
	var dups []string
	for _, obj := range []cty.Value{specific, shared} {
		if !isObject(obj) {
			continue
		}
		for name, v := range obj.AsValueMap() {
			if _, ok := out[name]; ok {
				dups = append(dups, name)
				continue
			}
			out[name] = v
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return cty.NilVal, fmt.Errorf("duplicate parameters found: %s. Please define parameters only once in the shared and %s dictionaries.",
			strings.Join(dups, ", "), kind)
	}
	return cty.ObjectVal(out), nil
}

func isObject(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsObjectType() || ty.IsMapType()
}

// Attr returns the named attribute of an object or map value, or cty.NilVal
// when v is not an object or has no such attribute.
func Attr(v cty.Value, name string) cty.Value {
	if !isObject(v) {
		return cty.NilVal
	}
	if v.Type().IsObjectType() {
		if !v.Type().HasAttribute(name) {
			return cty.NilVal
		}
		return v.GetAttr(name)
	}
	key := cty.StringVal(name)
	if !v.HasIndex(key).True() {
		return cty.NilVal
	}
	return v.Index(key)
}

// Lookup follows a dotted path of attribute names.
func Lookup(v cty.Value, path string) cty.Value {
	for _, part := range strings.Split(path, ".") {
		v = Attr(v, part)
		if v == cty.NilVal {
			return cty.NilVal
		}
	}
	return v
}

// Float returns the number at path, or def when it is absent.
func Float(v cty.Value, path string, def float64) (float64, error) {
	attr := Lookup(v, path)
	if attr == cty.NilVal || attr.IsNull() {
		return def, nil
	}
	var out float64
	if err := decodeLeaf(attr, reflect.ValueOf(&out).Elem()); err != nil {
		return 0, fmt.Errorf("parameter %q: %w", path, err)
	}
	return out, nil
}

// String returns the string at path, or def when it is absent.
func String(v cty.Value, path string, def string) (string, error) {
	attr := Lookup(v, path)
	if attr == cty.NilVal || attr.IsNull() {
		return def, nil
	}
	var out string
	if err := decodeLeaf(attr, reflect.ValueOf(&out).Elem()); err != nil {
		return "", fmt.Errorf("parameter %q: %w", path, err)
	}
	return out, nil
}

// Bool returns the bool at path, or def when it is absent.
func Bool(v cty.Value, path string, def bool) (bool, error) {
	attr := Lookup(v, path)
	if attr == cty.NilVal || attr.IsNull() {
		return def, nil
	}
	var out bool
	if err := decodeLeaf(attr, reflect.ValueOf(&out).Elem()); err != nil {
		return false, fmt.Errorf("parameter %q: %w", path, err)
	}
	return out, nil
}

// Decode fills the struct pointed to by target from an object value.
// Fields are matched by their `cty:"name"` tag. Attributes the struct does
// not know are ignored. A missing attribute is an error unless the tag
// carries the optional flag, as in `cty:"name,optional"`, in which case the
// field keeps its current value. Fields of type cty.Value receive the raw
// attribute.
func Decode(val cty.Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to a struct, got %T", target)
	}
	return decodeStruct(val, rv.Elem(), "")
}

func decodeStruct(val cty.Value, rv reflect.Value, prefix string) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("cty")
		if tag == "" || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		optional := opts == "optional"

		attr := Attr(val, name)
		if attr == cty.NilVal || attr.IsNull() {
			if optional {
				continue
			}
			return fmt.Errorf("missing required parameter %q", prefix+name)
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct && fv.Type() != valueType {
			if err := decodeStruct(attr, fv, prefix+name+"."); err != nil {
				return err
			}
			continue
		}
		if err := decodeLeaf(attr, fv); err != nil {
			return fmt.Errorf("parameter %q: %w", prefix+name, err)
		}
	}
	return nil
}

func decodeLeaf(attr cty.Value, fv reflect.Value) error {
	if fv.Type() == valueType {
		fv.Set(reflect.ValueOf(attr))
		return nil
	}
	want, err := gocty.ImpliedType(reflect.Zero(fv.Type()).Interface())
	if err != nil {
		return err
	}
	conv, err := convert.Convert(attr, want)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(conv, fv.Addr().Interface())
}

// Series expands a number or a list of numbers into n values. A single
// number is repeated; a list must have exactly n elements.
func Series(v cty.Value, n int) ([]float64, error) {
	if v == cty.NilVal || v.IsNull() {
		return make([]float64, n), nil
	}
	ty := v.Type()
	if ty == cty.Number || ty == cty.String {
		var x float64
		if err := decodeLeaf(v, reflect.ValueOf(&x).Elem()); err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = x
		}
		return out, nil
	}
	var out []float64
	if err := decodeLeaf(v, reflect.ValueOf(&out).Elem()); err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(out))
	}
	return out, nil
}
