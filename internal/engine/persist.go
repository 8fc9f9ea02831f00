package engine

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/vk/exprengine/internal/ctxlog"
	"github.com/vk/exprengine/internal/expr"
	"github.com/vk/exprengine/internal/objectpath"
)

// xmlExpression is one serialized binding. Attribute values are escaped by
// the XML encoder.
type xmlExpression struct {
	Path       string `xml:"path,attr"`
	Expression string `xml:"expression,attr"`
	Comment    string `xml:"comment,attr,omitempty"`
}

// xmlEngine is the persisted representation of the engine.
type xmlEngine struct {
	XMLName xml.Name        `xml:"ExpressionEngine"`
	Count   int             `xml:"count,attr"`
	Entries []xmlExpression `xml:"Expression"`
}

// Save writes the engine's XML element: an ExpressionEngine node with one
// Expression child per binding, in stable key order.
func (e *Engine) Save(w io.Writer) error {
	out := xmlEngine{Count: len(e.expressions)}
	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]
		out.Entries = append(out.Entries, xmlExpression{
			Path:       b.path.Canonical().String(),
			Expression: b.info.Expression.String(),
			Comment:    b.info.Comment,
		})
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to save expression engine: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return nil
}

// Restore parses the engine's XML element and stages the bindings. The live
// store is not touched; OnDocumentRestored drains the staged bindings once
// the document reports restore completion, so validation and back-link
// setup run against the fully restored graph.
func (e *Engine) Restore(r io.Reader) error {
	if e.owner == nil {
		return ErrNotOwned
	}

	var in xmlEngine
	if err := xml.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("failed to restore expression engine: %w", err)
	}
	if in.Count < 0 || in.Count != len(in.Entries) {
		return fmt.Errorf("expression count %d does not match %d stored expressions", in.Count, len(in.Entries))
	}

	e.restored = e.restored[:0]
	for _, entry := range in.Entries {
		p, err := objectpath.Parse(e.owner, entry.Path)
		if err != nil {
			return fmt.Errorf("failed to restore expression path: %w", err)
		}
		ex, err := expr.Parse(e.owner, entry.Expression)
		if err != nil {
			return fmt.Errorf("failed to restore expression: %w", err)
		}
		e.restored = append(e.restored, binding{
			path: p,
			info: ExpressionInfo{Expression: ex, Comment: entry.Comment},
		})
	}
	return nil
}

// OnDocumentRestored drains the staged bindings into the live store through
// SetValue, which re-runs validation and establishes back-links.
func (e *Engine) OnDocumentRestored(ctx context.Context) error {
	if len(e.restored) == 0 {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Draining restored bindings.", "count", len(e.restored))

	e.beginChange()
	defer e.endChange()

	for _, rb := range e.restored {
		if err := e.SetValue(ctx, rb.path, rb.info.Expression, rb.info.Comment); err != nil {
			return err
		}
	}
	e.restored = nil
	return nil
}
