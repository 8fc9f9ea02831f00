package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/exprengine/internal/document"
)

// splice is a byte-range replacement in the expression source.
type splice struct {
	start, end int
	repl       string
}

// applySplices rewrites the source text and reparses. Splices must not
// overlap; they are applied back-to-front so earlier offsets stay valid.
func (e *Expression) applySplices(splices []splice) error {
	if len(splices) == 0 {
		return nil
	}
	sort.Slice(splices, func(i, j int) bool { return splices[i].start > splices[j].start })
	src := e.src
	for _, s := range splices {
		src = src[:s.start] + s.repl + src[s.end:]
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(src), exprFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("rewrite of %q produced invalid expression %q: %s", e.src, src, diags.Error())
	}
	e.src = src
	e.parsed = parsed
	return nil
}

// RenameObject rewrites references to an object that has been renamed from
// oldName to newName. Returns whether the expression changed.
func (e *Expression) RenameObject(oldName, newName string) (bool, error) {
	if oldName == newName {
		return false, nil
	}
	// A bare root can also be a property of the owner; those references are
	// name-stable under object renames and must not be rewritten.
	_, ownerHasProp := e.owner.Property(oldName)

	var splices []splice
	for _, t := range e.parsed.Variables() {
		root, ok := t[0].(hcl.TraverseRoot)
		if !ok || root.Name != oldName {
			continue
		}
		if ownerHasProp && len(t) == 1 {
			continue
		}
		splices = append(splices, splice{
			start: root.SrcRange.Start.Byte,
			end:   root.SrcRange.End.Byte,
			repl:  newName,
		})
	}
	if len(splices) == 0 {
		return false, nil
	}
	if err := e.applySplices(splices); err != nil {
		return false, err
	}
	return true, nil
}

// RenamePaths rewrites variable references whose canonical path string
// appears as a key in renames, replacing the whole traversal with the mapped
// rendering. Returns whether the expression changed.
func (e *Expression) RenamePaths(renames map[string]string) (bool, error) {
	var splices []splice
	for _, t := range e.parsed.Variables() {
		r := e.resolveTraversal(t)
		if r.wholeObject() {
			continue
		}
		key := pathKey(r)
		repl, ok := renames[key]
		if !ok {
			continue
		}
		rng := t.SourceRange()
		splices = append(splices, splice{
			start: rng.Start.Byte,
			end:   rng.End.Byte,
			repl:  repl,
		})
	}
	if len(splices) == 0 {
		return false, nil
	}
	if err := e.applySplices(splices); err != nil {
		return false, err
	}
	return true, nil
}

// pathKey renders a resolved traversal as a canonical path string.
func pathKey(r resolved) string {
	p := pathOf(r)
	return p.Canonical().String()
}

// AdjustLinks revalidates references to the given objects after a host-graph
// link adjustment. A reference whose name no longer resolves to the same
// object inside the owner's document is an error.
func (e *Expression) AdjustLinks(inList []*document.Object) error {
	doc := e.owner.Document()
	for _, t := range e.parsed.Variables() {
		root := t.RootName()
		for _, obj := range inList {
			if obj == e.owner || obj.Name() != root {
				continue
			}
			cur, ok := doc.Object(root)
			if !ok || cur != obj {
				return fmt.Errorf("cannot adjust link to %q", traversalString(t))
			}
		}
	}
	return nil
}
