// Package engine implements the property expression engine: a reactive
// binding layer that attaches expressions to property paths of a document
// object and re-evaluates them in dependency order whenever the host graph
// changes.
//
// The engine keeps three invariants. Every stored key is a canonical path.
// The dependency graph over the stored bindings is acyclic at every
// committed state. And for every dependency on a foreign object, a matching
// back-link is registered on that object, withdrawn symmetrically when the
// binding goes away.
package engine
