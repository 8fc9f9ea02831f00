// Package document implements the host object graph the expression engine
// binds into: a named collection of objects, each carrying a property table,
// a touched flag, and a counted back-link registry used for dependency
// traversal and cycle checks.
//
// The document is signal-driven. Interested parties (expression engines)
// register observers for object renames, object deletion, property writes,
// and restore completion; the document fans the events out synchronously.
package document
