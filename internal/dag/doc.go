// Package dag provides the dependency graph the engine validates and orders
// bindings with. The graph is arena-style: nodes are dense integer indices
// assigned by the caller, edges are index pairs. A fresh graph is built for
// every validation or execute pass, so the structure carries no state
// between calls.
package dag
