package hcldoc_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/exprengine/internal/engine"
	"github.com/vk/exprengine/internal/hcldoc"
	"github.com/vk/exprengine/internal/testutil"
)

func TestDecodeFile(t *testing.T) {
	ctx := context.Background()
	def, err := hcldoc.DecodeFile(ctx, filepath.Join("testdata", "box.hcl"))
	require.NoError(t, err)

	require.Len(t, def.Objects, 2)
	assert.Equal(t, "Box", def.Objects[0].Name)
	assert.Len(t, def.Objects[0].Properties, 4)
	assert.Len(t, def.Objects[0].Expressions, 2)
	assert.Equal(t, "footprint", def.Objects[0].Expressions[0].Comment)
}

func TestDecodeErrors(t *testing.T) {
	ctx := context.Background()

	_, err := hcldoc.Decode(ctx, "bad.hcl", []byte(`object {`))
	assert.Error(t, err)

	_, err = hcldoc.DecodeFile(ctx, filepath.Join("testdata", "missing.hcl"))
	assert.Error(t, err)
}

func TestBuildAndExecute(t *testing.T) {
	ctx := context.Background()
	def, err := hcldoc.DecodeFile(ctx, filepath.Join("testdata", "box.hcl"))
	require.NoError(t, err)

	doc, engines, err := hcldoc.Build(ctx, "box", def)
	require.NoError(t, err)
	require.Len(t, engines, 2)

	box, ok := doc.Object("Box")
	require.True(t, ok)

	eng := engines["Box"]
	require.NoError(t, eng.Execute(ctx, engine.FilterAll))

	area, ok := box.Property("Area")
	require.True(t, ok)
	testutil.NumEqual(t, 12, area.Value())

	volume, ok := box.Property("Volume")
	require.True(t, ok)
	testutil.NumEqual(t, 24, volume.Value())
}

func TestBuildRejectsNonLiteralValues(t *testing.T) {
	ctx := context.Background()
	def, err := hcldoc.Decode(ctx, "bad.hcl", []byte(`
object "Box" {
  property "Width" {
    value = somewhere.else
  }
}
`))
	require.NoError(t, err)

	_, _, err = hcldoc.Build(ctx, "bad", def)
	assert.ErrorContains(t, err, "must be a literal")
}

func TestBuildRejectsCyclicBindings(t *testing.T) {
	ctx := context.Background()
	def, err := hcldoc.Decode(ctx, "cycle.hcl", []byte(`
object "Box" {
  property "A" {}
  property "B" {}
  expression "A" {
    expr = "B + 1"
  }
  expression "B" {
    expr = "A - 1"
  }
}
`))
	require.NoError(t, err)

	_, _, err = hcldoc.Build(ctx, "cycle", def)
	assert.ErrorContains(t, err, "cyclic dependency")
}
