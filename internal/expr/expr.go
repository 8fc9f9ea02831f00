package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/objectpath"
)

// exprFilename is the synthetic filename used for source ranges; rename
// passes splice the source by the byte offsets HCL reports against it.
const exprFilename = "expression"

// Expression is a parsed binding expression, owned by exactly one binding.
type Expression struct {
	owner  *document.Object
	src    string
	parsed hclsyntax.Expression
}

// Parse parses an expression string in the context of owner. References in
// the expression resolve against owner's document: a traversal root naming a
// sibling object selects it, any other root is read as a property of owner.
func Parse(owner *document.Object, src string) (*Expression, error) {
	if owner == nil || owner.Document() == nil {
		return nil, fmt.Errorf("expression %q: no owner object to parse against", src)
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(src), exprFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid expression %q: %s", src, diags.Error())
	}
	return &Expression{owner: owner, src: src, parsed: parsed}, nil
}

// Copy returns a deep copy of the expression.
func (e *Expression) Copy() *Expression {
	c, err := Parse(e.owner, e.src)
	if err != nil {
		// The source was parsed once already; a reparse cannot fail.
		panic(fmt.Sprintf("expr: reparse of %q failed: %v", e.src, err))
	}
	return c
}

// Owner returns the object the expression was parsed against.
func (e *Expression) Owner() *document.Object {
	return e.owner
}

// String returns the current source rendering of the expression.
func (e *Expression) String() string {
	return e.src
}

// traversalString renders a traversal for diagnostics, matching how the
// expression source spells it.
func traversalString(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// resolved is a variable traversal mapped onto the document model.
type resolved struct {
	obj      *document.Object
	segments []objectpath.Segment
}

// wholeObject reports whether the traversal references the object itself
// rather than one of its properties.
func (r resolved) wholeObject() bool {
	return len(r.segments) == 0
}

// pathOf converts a resolved traversal into a path.
func pathOf(r resolved) objectpath.Path {
	return objectpath.New(r.obj, r.segments)
}

// resolveTraversal maps a traversal onto (object, path segments). A root
// naming a sibling object selects it; any other root is treated as a
// property of the owner, whether or not it currently exists, so unresolvable
// references still surface as graph nodes and evaluation errors.
func (e *Expression) resolveTraversal(t hcl.Traversal) resolved {
	doc := e.owner.Document()
	root := t.RootName()

	if obj, ok := doc.Object(root); ok {
		return resolved{obj: obj, segments: segmentsFromTraversal(t[1:])}
	}

	segs := append([]objectpath.Segment{{Name: root, Index: -1}}, segmentsFromTraversal(t[1:])...)
	return resolved{obj: e.owner, segments: segs}
}

// segmentsFromTraversal converts traversal steps into path segments. An
// index step attaches to the preceding named segment.
func segmentsFromTraversal(steps hcl.Traversal) []objectpath.Segment {
	var segs []objectpath.Segment
	for _, step := range steps {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			segs = append(segs, objectpath.Segment{Name: s.Name, Index: -1})
		case hcl.TraverseIndex:
			key := s.Key
			if key.Type() == cty.Number {
				bf := key.AsBigFloat()
				if bf.IsInt() {
					v, _ := bf.Int64()
					if len(segs) > 0 && segs[len(segs)-1].Index == -1 {
						segs[len(segs)-1].Index = int(v)
						continue
					}
				}
			} else if key.Type() == cty.String {
				segs = append(segs, objectpath.Segment{Name: key.AsString(), Index: -1})
				continue
			}
			// Non-integer or leading index: stop descending; the prefix is
			// still a usable dependency path.
			return segs
		}
	}
	return segs
}

// Deps returns the expression's dependencies grouped object → property name
// → referenced paths. A reference to an object with no property appears
// under the empty property name.
func (e *Expression) Deps() map[*document.Object]map[string][]objectpath.Path {
	deps := make(map[*document.Object]map[string][]objectpath.Path)
	for _, t := range e.parsed.Variables() {
		r := e.resolveTraversal(t)
		byProp, ok := deps[r.obj]
		if !ok {
			byProp = make(map[string][]objectpath.Path)
			deps[r.obj] = byProp
		}
		if r.wholeObject() {
			if _, ok := byProp[""]; !ok {
				byProp[""] = nil
			}
			continue
		}
		name := r.segments[0].Name
		byProp[name] = append(byProp[name], objectpath.New(r.obj, r.segments))
	}
	return deps
}

// DepObjects returns the distinct objects the expression references, sorted
// by name for deterministic iteration.
func (e *Expression) DepObjects() []*document.Object {
	seen := make(map[*document.Object]struct{})
	var out []*document.Object
	for _, t := range e.parsed.Variables() {
		r := e.resolveTraversal(t)
		if _, ok := seen[r.obj]; !ok {
			seen[r.obj] = struct{}{}
			out = append(out, r.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// VisitVariables invokes fn for every variable traversal in the expression.
// The engine's transformation passes only care about these leaves.
func (e *Expression) VisitVariables(fn func(hcl.Traversal)) {
	for _, t := range e.parsed.Variables() {
		fn(t)
	}
}

// Touched reports whether any referenced object has been touched since its
// last recompute.
func (e *Expression) Touched() bool {
	for _, obj := range e.DepObjects() {
		if obj.Touched() {
			return true
		}
	}
	return false
}
