// Package hcldoc loads document definitions from HCL files: objects, their
// properties with literal initial values, and the expression bindings to
// install on each object's engine.
package hcldoc
