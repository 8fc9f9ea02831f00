// Package testutil provides small helpers for building documents, paths,
// and expressions in tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/expr"
	"github.com/vk/exprengine/internal/objectpath"
)

// NewDoc creates an empty test document.
func NewDoc(t *testing.T) *document.Document {
	t.Helper()
	return document.New("test")
}

// AddObj adds an object to doc, failing the test on error.
func AddObj(t *testing.T, doc *document.Document, name string) *document.Object {
	t.Helper()
	obj, err := doc.AddObject(name)
	require.NoError(t, err)
	return obj
}

// AddProp adds a property with the given flags and initial value.
func AddProp(t *testing.T, obj *document.Object, name string, flags document.PropertyFlags, v cty.Value) *document.Property {
	t.Helper()
	prop, err := obj.AddProperty(name, flags)
	require.NoError(t, err)
	if v != cty.NilVal {
		prop.SetValue(v)
	}
	return prop
}

// MustPath parses a path in the context of owner, failing the test on error.
func MustPath(t *testing.T, owner *document.Object, raw string) objectpath.Path {
	t.Helper()
	p, err := objectpath.Parse(owner, raw)
	require.NoError(t, err)
	return p
}

// MustExpr parses an expression in the context of owner, failing the test on
// error.
func MustExpr(t *testing.T, owner *document.Object, src string) *expr.Expression {
	t.Helper()
	ex, err := expr.Parse(owner, src)
	require.NoError(t, err)
	return ex
}

// Num is shorthand for a cty number value.
func Num(f float64) cty.Value {
	return cty.NumberFloatVal(f)
}

// NumEqual asserts that v is a non-null number equal to want.
func NumEqual(t *testing.T, want float64, v cty.Value) {
	t.Helper()
	require.False(t, v.IsNull(), "value is null, want %v", want)
	require.Equal(t, cty.Number, v.Type())
	got, _ := v.AsBigFloat().Float64()
	require.Equal(t, want, got)
}
