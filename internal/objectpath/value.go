package objectpath

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// step is one navigation operation into a cty value.
type step struct {
	attr  string
	index int
	isIdx bool
}

// steps flattens the path's tail (everything beyond the property selection)
// into navigation operations.
func (p Path) steps() []step {
	var out []step
	for i, seg := range p.segments {
		if i > 0 {
			out = append(out, step{attr: seg.Name})
		}
		if seg.HasIndex() {
			out = append(out, step{index: seg.Index, isIdx: true})
		}
	}
	return out
}

// GetValue reads the value the path points at, navigating sub-paths through
// nested object and tuple values.
func (p Path) GetValue() (cty.Value, error) {
	prop, _ := p.Property()
	if prop == nil {
		return cty.NilVal, fmt.Errorf("%s", p.ResolveErrorString())
	}
	v := prop.Value()
	for _, st := range p.steps() {
		var err error
		v, err = navigate(v, st)
		if err != nil {
			return cty.NilVal, fmt.Errorf("path %s: %w", p.Canonical().String(), err)
		}
	}
	return v, nil
}

// SetValue writes through the path. Sub-path writes rebuild the enclosing
// containers, since cty values are immutable.
func (p Path) SetValue(v cty.Value) error {
	prop, _ := p.Property()
	if prop == nil {
		return fmt.Errorf("%s", p.ResolveErrorString())
	}
	steps := p.steps()
	if len(steps) == 0 {
		prop.SetValue(v)
		return nil
	}
	updated, err := rebuild(prop.Value(), steps, v)
	if err != nil {
		return fmt.Errorf("path %s: %w", p.Canonical().String(), err)
	}
	prop.SetValue(updated)
	return nil
}

func navigate(v cty.Value, st step) (cty.Value, error) {
	if v.IsNull() {
		return cty.NilVal, fmt.Errorf("cannot navigate into null value")
	}
	if st.isIdx {
		ty := v.Type()
		if !ty.IsTupleType() && !ty.IsListType() {
			return cty.NilVal, fmt.Errorf("cannot index into %s", ty.FriendlyName())
		}
		if st.index < 0 || st.index >= v.LengthInt() {
			return cty.NilVal, fmt.Errorf("index %d out of range", st.index)
		}
		return v.Index(cty.NumberIntVal(int64(st.index))), nil
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(st.attr) {
			return cty.NilVal, fmt.Errorf("no attribute %q", st.attr)
		}
		return v.GetAttr(st.attr), nil
	case ty.IsMapType():
		key := cty.StringVal(st.attr)
		if !v.HasIndex(key).True() {
			return cty.NilVal, fmt.Errorf("no element %q", st.attr)
		}
		return v.Index(key), nil
	default:
		return cty.NilVal, fmt.Errorf("cannot access attribute %q of %s", st.attr, ty.FriendlyName())
	}
}

func rebuild(v cty.Value, steps []step, nv cty.Value) (cty.Value, error) {
	if len(steps) == 0 {
		return nv, nil
	}
	st := steps[0]
	child, err := navigate(v, st)
	if err != nil {
		return cty.NilVal, err
	}
	child, err = rebuild(child, steps[1:], nv)
	if err != nil {
		return cty.NilVal, err
	}

	ty := v.Type()
	switch {
	case st.isIdx:
		n := v.LengthInt()
		elems := make([]cty.Value, 0, n)
		for i := 0; i < n; i++ {
			if i == st.index {
				elems = append(elems, child)
			} else {
				elems = append(elems, v.Index(cty.NumberIntVal(int64(i))))
			}
		}
		return cty.TupleVal(elems), nil
	case ty.IsObjectType():
		attrs := make(map[string]cty.Value, len(ty.AttributeTypes()))
		for name := range ty.AttributeTypes() {
			if name == st.attr {
				attrs[name] = child
			} else {
				attrs[name] = v.GetAttr(name)
			}
		}
		return cty.ObjectVal(attrs), nil
	case ty.IsMapType():
		elems := make(map[string]cty.Value)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			if k.AsString() == st.attr {
				elems[k.AsString()] = child
			} else {
				elems[k.AsString()] = ev
			}
		}
		return cty.MapVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("cannot rebuild %s", ty.FriendlyName())
	}
}
