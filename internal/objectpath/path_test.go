package objectpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/objectpath"
	"github.com/vk/exprengine/internal/testutil"
)

func fixture(t *testing.T) (*document.Document, *document.Object, *document.Object) {
	t.Helper()
	doc := testutil.NewDoc(t)
	box := testutil.AddObj(t, doc, "Box")
	other := testutil.AddObj(t, doc, "Other")
	testutil.AddProp(t, box, "Height", 0, testutil.Num(4))
	testutil.AddProp(t, other, "value", 0, testutil.Num(5))
	return doc, box, other
}

func TestParse(t *testing.T) {
	_, box, other := fixture(t)

	t.Run("bare property binds to owner", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Height")
		assert.Equal(t, "Height", p.String())
		assert.Equal(t, "Box.Height", p.Canonical().String())
	})

	t.Run("leading dot forces owner binding", func(t *testing.T) {
		p := testutil.MustPath(t, box, ".Height")
		assert.Equal(t, "Box.Height", p.Canonical().String())
	})

	t.Run("object-qualified path selects sibling", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Other.value")
		assert.Equal(t, "Other.value", p.Canonical().String())
		assert.Equal(t, other, p.DocumentObject())
	})

	t.Run("explicit owner form and bare form are equal", func(t *testing.T) {
		a := testutil.MustPath(t, box, "Box.Height")
		b := testutil.MustPath(t, box, "Height")
		assert.True(t, a.Same(b))
	})

	t.Run("indexed segment", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Points[2]")
		assert.Equal(t, "Box.Points[2]", p.Canonical().String())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := objectpath.Parse(box, "")
		assert.Error(t, err)
		_, err = objectpath.Parse(box, "a..b")
		assert.ErrorContains(t, err, "empty segment")
		_, err = objectpath.Parse(box, "a[x]")
		assert.ErrorContains(t, err, "invalid path segment")
		_, err = objectpath.Parse(nil, "Height")
		assert.Error(t, err)
	})
}

func TestCanonicalIdempotent(t *testing.T) {
	_, box, _ := fixture(t)
	p := testutil.MustPath(t, box, "Height")
	c := p.Canonical()
	assert.Equal(t, c.String(), c.Canonical().String())
}

func TestProperty(t *testing.T) {
	_, box, _ := fixture(t)

	t.Run("direct property", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Height")
		prop, kind := p.Property()
		require.NotNil(t, prop)
		assert.Equal(t, objectpath.KindProperty, kind)
		assert.Equal(t, "Height", prop.Name())
	})

	t.Run("sub-path", func(t *testing.T) {
		testutil.AddProp(t, box, "Size", 0, cty.ObjectVal(map[string]cty.Value{
			"x": testutil.Num(1),
			"y": testutil.Num(2),
		}))
		p := testutil.MustPath(t, box, "Size.x")
		prop, kind := p.Property()
		require.NotNil(t, prop)
		assert.Equal(t, objectpath.KindSub, kind)
	})

	t.Run("missing property", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Nope")
		prop, _ := p.Property()
		assert.Nil(t, prop)
		assert.Contains(t, p.ResolveErrorString(), "Nope")
	})
}

func TestPathRendersCurrentObjectName(t *testing.T) {
	doc, box, _ := fixture(t)
	p := testutil.MustPath(t, box, "Height").Canonical()
	require.NoError(t, doc.Rename("Box", "Crate"))
	assert.Equal(t, "Crate.Height", p.String())
}

func TestDocumentObjectAfterRemoval(t *testing.T) {
	doc, box, _ := fixture(t)
	p := testutil.MustPath(t, box, "Height")
	require.NoError(t, doc.Remove("Box"))
	assert.Nil(t, p.DocumentObject())
	prop, _ := p.Property()
	assert.Nil(t, prop)
}

func TestGetSetValue(t *testing.T) {
	_, box, _ := fixture(t)

	t.Run("direct property round trip", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Height")
		require.NoError(t, p.SetValue(testutil.Num(9)))
		v, err := p.GetValue()
		require.NoError(t, err)
		testutil.NumEqual(t, 9, v)
	})

	t.Run("nested object attribute", func(t *testing.T) {
		testutil.AddProp(t, box, "Size", 0, cty.ObjectVal(map[string]cty.Value{
			"x": testutil.Num(1),
			"y": testutil.Num(2),
		}))
		p := testutil.MustPath(t, box, "Size.x")
		require.NoError(t, p.SetValue(testutil.Num(7)))

		v, err := p.GetValue()
		require.NoError(t, err)
		testutil.NumEqual(t, 7, v)

		// The sibling attribute is untouched.
		y, err := testutil.MustPath(t, box, "Size.y").GetValue()
		require.NoError(t, err)
		testutil.NumEqual(t, 2, y)
	})

	t.Run("tuple element", func(t *testing.T) {
		testutil.AddProp(t, box, "Points", 0, cty.TupleVal([]cty.Value{
			testutil.Num(0), testutil.Num(1), testutil.Num(2),
		}))
		p := testutil.MustPath(t, box, "Points[1]")
		require.NoError(t, p.SetValue(testutil.Num(10)))

		v, err := p.GetValue()
		require.NoError(t, err)
		testutil.NumEqual(t, 10, v)
	})

	t.Run("index out of range", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Points[9]")
		_, err := p.GetValue()
		assert.ErrorContains(t, err, "out of range")
	})

	t.Run("navigation into scalar fails", func(t *testing.T) {
		p := testutil.MustPath(t, box, "Height.x")
		_, err := p.GetValue()
		assert.Error(t, err)
	})
}
