// Package objectpath models symbolic references to properties and
// sub-properties of document objects, e.g. `Box.Size.x` or `Points[2]`.
//
// Paths have two forms. The user-written form may omit the object and bind
// to the owning object of the parse ("Height", ".Height"). The canonical
// form always names the object explicitly; any two paths naming the same
// location render to the same canonical string, which is what the engine
// uses as its map key.
package objectpath
