package document

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Object is a single node of the host graph: a named owner of properties.
// Back-links record which other objects reference this one, so the graph can
// answer reverse-dependency queries without scanning every expression.
type Object struct {
	id   uuid.UUID
	name string
	doc  *Document

	props     map[string]*Property
	propOrder []string

	// backLinks counts, per referencing object, how many live references
	// point at this object. Counted so overlapping registrations withdraw
	// symmetrically.
	backLinks map[*Object]int

	touched bool
}

func newObject(doc *Document, name string) *Object {
	return &Object{
		id:        uuid.New(),
		name:      name,
		doc:       doc,
		props:     make(map[string]*Property),
		backLinks: make(map[*Object]int),
	}
}

// ID returns the object's stable identity, independent of its name.
func (o *Object) ID() uuid.UUID {
	return o.id
}

// Name returns the object's current name in the document.
func (o *Object) Name() string {
	return o.name
}

// Document returns the owning document.
func (o *Object) Document() *Document {
	return o.doc
}

// FullName renders "<document>#<object>" for diagnostics.
func (o *Object) FullName() string {
	if o == nil {
		return "?"
	}
	return o.doc.Name() + "#" + o.name
}

// AddProperty creates a property on this object. Property names are unique
// per object.
func (o *Object) AddProperty(name string, flags PropertyFlags) (*Property, error) {
	if name == "" {
		return nil, fmt.Errorf("property name cannot be empty")
	}
	if _, exists := o.props[name]; exists {
		return nil, fmt.Errorf("property %q already exists on %s", name, o.FullName())
	}
	prop := newProperty(o, name, flags)
	o.props[name] = prop
	o.propOrder = append(o.propOrder, name)
	return prop, nil
}

// Property looks up a property by name.
func (o *Object) Property(name string) (*Property, bool) {
	p, ok := o.props[name]
	return p, ok
}

// Properties returns the object's properties in creation order.
func (o *Object) Properties() []*Property {
	out := make([]*Property, 0, len(o.propOrder))
	for _, name := range o.propOrder {
		out = append(out, o.props[name])
	}
	return out
}

// Touch marks the object as needing recompute.
func (o *Object) Touch() {
	o.touched = true
}

// Touched reports whether the object has been touched since the last
// ClearTouched.
func (o *Object) Touched() bool {
	return o.touched
}

// ClearTouched resets the touched flag, typically after a recompute.
func (o *Object) ClearTouched() {
	o.touched = false
}

// AddBackLink records that owner references this object.
func (o *Object) AddBackLink(owner *Object) {
	if owner == nil || owner == o {
		return
	}
	o.backLinks[owner]++
}

// RemoveBackLink withdraws one reference from owner to this object.
func (o *Object) RemoveBackLink(owner *Object) {
	if owner == nil || owner == o {
		return
	}
	if n, ok := o.backLinks[owner]; ok {
		if n <= 1 {
			delete(o.backLinks, owner)
		} else {
			o.backLinks[owner] = n - 1
		}
	}
}

// BackLinkCount returns the number of live references from owner to this
// object. Used by tests to detect bookkeeping leaks.
func (o *Object) BackLinkCount(owner *Object) int {
	return o.backLinks[owner]
}

// InList returns the objects that directly reference this object.
func (o *Object) InList() []*Object {
	out := make([]*Object, 0, len(o.backLinks))
	for obj := range o.backLinks {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// InListEx returns the set of objects referencing this object. With
// transitive set, the closure over back-links is returned, so membership of
// an object X means X depends on this object directly or through a chain.
func (o *Object) InListEx(transitive bool) map[*Object]struct{} {
	result := make(map[*Object]struct{})
	queue := make([]*Object, 0, len(o.backLinks))
	for obj := range o.backLinks {
		queue = append(queue, obj)
	}
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		if _, seen := result[obj]; seen {
			continue
		}
		result[obj] = struct{}{}
		if transitive {
			for next := range obj.backLinks {
				queue = append(queue, next)
			}
		}
	}
	return result
}
