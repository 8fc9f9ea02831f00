package hcldoc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/exprengine/internal/ctxlog"
	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/engine"
	"github.com/vk/exprengine/internal/expr"
	"github.com/vk/exprengine/internal/objectpath"
)

// File is the decoded form of a document definition.
type File struct {
	Objects []*ObjectBlock `hcl:"object,block"`
}

// ObjectBlock declares one document object.
type ObjectBlock struct {
	Name        string             `hcl:"name,label"`
	Properties  []*PropertyBlock   `hcl:"property,block"`
	Expressions []*ExpressionBlock `hcl:"expression,block"`
}

// PropertyBlock declares a property with an optional literal initial value.
type PropertyBlock struct {
	Name   string         `hcl:"name,label"`
	Value  hcl.Expression `hcl:"value,optional"`
	Output bool           `hcl:"output,optional"`
}

// ExpressionBlock binds an expression to a property path of the enclosing
// object.
type ExpressionBlock struct {
	Path    string `hcl:"path,label"`
	Expr    string `hcl:"expr"`
	Comment string `hcl:"comment,optional"`
}

// DecodeFile parses and decodes a single document definition file.
func DecodeFile(ctx context.Context, filePath string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding document file.", "path", filePath)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filePath, diags.Error())
	}

	var def File
	diags = gohcl.DecodeBody(file.Body, nil, &def)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filePath, diags.Error())
	}

	logger.Debug("Successfully decoded document file.", "path", filePath, "objects_found", len(def.Objects))
	return &def, nil
}

// Decode parses a document definition from raw source, for tests and tools.
func Decode(ctx context.Context, filename string, src []byte) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %s", filename, diags.Error())
	}
	var def File
	diags = gohcl.DecodeBody(file.Body, nil, &def)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL source %s: %s", filename, diags.Error())
	}
	return &def, nil
}

// Build materializes a decoded definition: objects and properties first, so
// cross-object references resolve regardless of declaration order, then one
// engine per object with its bindings installed through SetValue.
func Build(ctx context.Context, name string, def *File) (*document.Document, map[string]*engine.Engine, error) {
	logger := ctxlog.FromContext(ctx)
	doc := document.New(name)

	for _, ob := range def.Objects {
		obj, err := doc.AddObject(ob.Name)
		if err != nil {
			return nil, nil, err
		}
		for _, pb := range ob.Properties {
			flags := document.PropertyFlags(0)
			if pb.Output {
				flags |= document.StatusOutput
			}
			prop, err := obj.AddProperty(pb.Name, flags)
			if err != nil {
				return nil, nil, err
			}
			if pb.Value != nil {
				v, diags := pb.Value.Value(nil)
				if diags.HasErrors() {
					return nil, nil, fmt.Errorf("property %s.%s: value must be a literal: %s",
						ob.Name, pb.Name, diags.Error())
				}
				prop.SetValue(v)
			}
		}
	}

	engines := make(map[string]*engine.Engine, len(def.Objects))
	for _, ob := range def.Objects {
		obj, _ := doc.Object(ob.Name)
		engines[ob.Name] = engine.New(obj)
	}

	for _, ob := range def.Objects {
		obj, _ := doc.Object(ob.Name)
		eng := engines[ob.Name]
		for _, eb := range ob.Expressions {
			p, err := objectpath.Parse(obj, eb.Path)
			if err != nil {
				return nil, nil, fmt.Errorf("object %s: %w", ob.Name, err)
			}
			ex, err := expr.Parse(obj, eb.Expr)
			if err != nil {
				return nil, nil, fmt.Errorf("object %s: %w", ob.Name, err)
			}
			if err := eng.SetValue(ctx, p, ex, eb.Comment); err != nil {
				return nil, nil, fmt.Errorf("object %s, path %s: %w", ob.Name, eb.Path, err)
			}
		}
	}

	logger.Debug("Document built.", "objects", len(def.Objects))
	return doc, engines, nil
}

// Load decodes and builds a document definition file. The document takes its
// name from the file's base name.
func Load(ctx context.Context, filePath string) (*document.Document, map[string]*engine.Engine, error) {
	def, err := DecodeFile(ctx, filePath)
	if err != nil {
		return nil, nil, err
	}
	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return Build(ctx, name, def)
}
