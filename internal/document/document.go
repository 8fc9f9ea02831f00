package document

import (
	"fmt"
	"regexp"
)

// objectNameRegex restricts object names to identifier-like strings so they
// can appear as expression traversal roots.
var objectNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Document is a collection of named objects plus the signal fan-out used to
// keep dependent subsystems consistent under mutation.
type Document struct {
	name    string
	objects map[string]*Object
	order   []string

	renameObs  []func(obj *Object, oldName string)
	deleteObs  []func(obj *Object)
	valueObs   []func(prop *Property)
	restoreObs []func() error
}

// New creates an empty document.
func New(name string) *Document {
	return &Document{
		name:    name,
		objects: make(map[string]*Object),
	}
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// AddObject creates and registers a new object. Object names are unique
// within a document.
func (d *Document) AddObject(name string) (*Object, error) {
	if !objectNameRegex.MatchString(name) {
		return nil, fmt.Errorf("invalid object name %q", name)
	}
	if _, exists := d.objects[name]; exists {
		return nil, fmt.Errorf("object %q already exists in document %q", name, d.name)
	}
	obj := newObject(d, name)
	d.objects[name] = obj
	d.order = append(d.order, name)
	return obj, nil
}

// Object looks up an object by name.
func (d *Document) Object(name string) (*Object, bool) {
	obj, ok := d.objects[name]
	return obj, ok
}

// Objects returns all objects in creation order.
func (d *Document) Objects() []*Object {
	out := make([]*Object, 0, len(d.order))
	for _, name := range d.order {
		if obj, ok := d.objects[name]; ok {
			out = append(out, obj)
		}
	}
	return out
}

// Rename gives an existing object a new unique name and notifies rename
// observers. Observers see the object after the rename, together with the
// name it had before.
func (d *Document) Rename(oldName, newName string) error {
	obj, ok := d.objects[oldName]
	if !ok {
		return fmt.Errorf("no object %q in document %q", oldName, d.name)
	}
	if oldName == newName {
		return nil
	}
	if !objectNameRegex.MatchString(newName) {
		return fmt.Errorf("invalid object name %q", newName)
	}
	if _, exists := d.objects[newName]; exists {
		return fmt.Errorf("object %q already exists in document %q", newName, d.name)
	}

	delete(d.objects, oldName)
	obj.name = newName
	d.objects[newName] = obj
	for i, n := range d.order {
		if n == oldName {
			d.order[i] = newName
			break
		}
	}

	for _, fn := range d.renameObs {
		fn(obj, oldName)
	}
	return nil
}

// Remove deletes an object from the document. Deletion observers run before
// the object disappears, while its references still resolve.
func (d *Document) Remove(name string) error {
	obj, ok := d.objects[name]
	if !ok {
		return fmt.Errorf("no object %q in document %q", name, d.name)
	}

	for _, fn := range d.deleteObs {
		fn(obj)
	}

	delete(d.objects, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// ObserveRename registers a callback fired after an object has been renamed.
func (d *Document) ObserveRename(fn func(obj *Object, oldName string)) {
	d.renameObs = append(d.renameObs, fn)
}

// ObserveDelete registers a callback fired just before an object is removed.
func (d *Document) ObserveDelete(fn func(obj *Object)) {
	d.deleteObs = append(d.deleteObs, fn)
}

// ObserveValueChange registers a callback fired after any property write.
func (d *Document) ObserveValueChange(fn func(prop *Property)) {
	d.valueObs = append(d.valueObs, fn)
}

// ObserveRestored registers a callback fired when the document reports that
// deserialization has fully completed.
func (d *Document) ObserveRestored(fn func() error) {
	d.restoreObs = append(d.restoreObs, fn)
}

// FinishRestore signals restore completion to every registered observer.
// The first observer error aborts the fan-out.
func (d *Document) FinishRestore() error {
	for _, fn := range d.restoreObs {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) notifyValueChange(prop *Property) {
	for _, fn := range d.valueObs {
		fn(prop)
	}
}
