// Package expr wraps HCL expressions for use as property bindings. An
// Expression owns its source text and parsed AST, answers dependency queries
// by walking variable traversals, evaluates against the current state of the
// document, and supports in-place reference rewriting for rename passes.
// The link-adjustment pass only checks that references still resolve.
package expr
