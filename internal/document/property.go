package document

import (
	"github.com/zclconf/go-cty/cty"
)

// PropertyFlags is a bit set of property status flags.
type PropertyFlags uint8

const (
	// StatusOutput marks a property as an output of its object. The engine's
	// execute pass can be restricted to outputs or non-outputs.
	StatusOutput PropertyFlags = 1 << iota
	// StatusReadOnly marks a property as read-only. It is a status bit
	// only: SetValue and path writes do not check it.
	StatusReadOnly
)

// Property is a named, typed slot on an object. Values are cty values, so
// nested structures (objects, tuples) are navigable by sub-paths.
type Property struct {
	name      string
	container *Object
	value     cty.Value
	flags     PropertyFlags
}

func newProperty(container *Object, name string, flags PropertyFlags) *Property {
	return &Property{
		name:      name,
		container: container,
		value:     cty.NullVal(cty.DynamicPseudoType),
		flags:     flags,
	}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Container returns the object this property belongs to.
func (p *Property) Container() *Object {
	return p.container
}

// Value returns the current value. Unset properties hold a null value.
func (p *Property) Value() cty.Value {
	return p.value
}

// SetValue stores a new value, touches the container, and notifies the
// document's value observers.
func (p *Property) SetValue(v cty.Value) {
	if v == cty.NilVal {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	p.value = v
	p.container.Touch()
	p.container.doc.notifyValueChange(p)
}

// TestStatus reports whether all bits of f are set on this property.
func (p *Property) TestStatus(f PropertyFlags) bool {
	return p.flags&f == f
}

// SetStatus sets the given status bits.
func (p *Property) SetStatus(f PropertyFlags) {
	p.flags |= f
}
