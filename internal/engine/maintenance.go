package engine

import (
	"context"
	"sort"

	"github.com/vk/exprengine/internal/ctxlog"
	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/objectpath"
)

// OnObjectRenamed rewrites references to a renamed object in every binding.
// Bindings that visibly change emit changed. When the owner itself was
// renamed the store is rekeyed, since canonical key strings embed the
// object name.
func (e *Engine) OnObjectRenamed(ctx context.Context, obj *document.Object, oldName string) {
	logger := ctxlog.FromContext(ctx)
	if e.owner == nil {
		return
	}

	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]
		changed, err := b.info.Expression.RenameObject(oldName, obj.Name())
		if err != nil {
			logger.Warn("Rename rewrite failed; binding left unchanged.",
				"path", k, "old", oldName, "new", obj.Name(), "error", err)
			continue
		}
		if changed {
			e.expressionChanged(b.path)
		}
	}

	if obj == e.owner {
		e.rekeyStore()
	}
}

// rekeyStore rebuilds the store map so every entry sits under its current
// canonical key string. Paths hold objects by identity, so a rename changes
// key renderings without changing the paths themselves.
func (e *Engine) rekeyStore() {
	fresh := make(map[string]binding, len(e.expressions))
	for _, b := range e.expressions {
		fresh[e.key(b.path)] = b
	}
	e.expressions = fresh
}

// OnObjectDeleted marks the engine dirty when any binding references the
// deleted object. Bindings are not modified; the next recompute surfaces an
// unresolved-reference error.
func (e *Engine) OnObjectDeleted(ctx context.Context, obj *document.Object) {
	if e.owner == nil {
		return
	}
	for _, b := range e.expressions {
		for _, dep := range b.info.Expression.DepObjects() {
			if dep == obj {
				ctxlog.FromContext(ctx).Debug("Referenced object deleted; engine touched.",
					"object", obj.Name())
				e.touch()
				return
			}
		}
	}
}

// PathRename maps one path to another in a rename pass.
type PathRename struct {
	From objectpath.Path
	To   objectpath.Path
}

// RenamePaths rehouses bindings whose key appears in the rename list. The
// whole rebuild runs inside a single change scope and emits changed for
// every final key.
func (e *Engine) RenamePaths(renames []PathRename) error {
	canonical := make(map[string]objectpath.Path, len(renames))
	for _, r := range renames {
		useFrom, err := e.canonicalPath(r.From)
		if err != nil {
			return err
		}
		canonical[e.key(useFrom)] = r.To
	}

	e.beginChange()
	defer e.endChange()

	fresh := make(map[string]binding, len(e.expressions))
	for k, b := range e.expressions {
		if to, ok := canonical[k]; ok {
			fresh[e.key(to)] = binding{path: to.Canonical(), info: b.info}
		} else {
			fresh[k] = b
		}
	}
	e.expressions = fresh

	for _, k := range sortedKeys(e.expressions) {
		e.expressionChanged(e.expressions[k].path)
	}
	return nil
}

// RenameObjectIdentifiers rewrites references inside expressions according
// to the path map. Store keys are unaffected.
func (e *Engine) RenameObjectIdentifiers(ctx context.Context, renames []PathRename) error {
	logger := ctxlog.FromContext(ctx)

	byKey := make(map[string]string, len(renames))
	for _, r := range renames {
		byKey[r.From.Canonical().String()] = r.To.Canonical().String()
	}

	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]
		changed, err := b.info.Expression.RenamePaths(byKey)
		if err != nil {
			logger.Warn("Reference rewrite failed; binding left unchanged.", "path", k, "error", err)
			continue
		}
		if changed {
			e.expressionChanged(b.path)
		}
	}
	return nil
}

// BreakDependency removes every binding that references one of the given
// objects.
func (e *Engine) BreakDependency(ctx context.Context, objs []*document.Object) error {
	depSet := make(map[*document.Object]struct{})
	for _, obj := range e.DocumentObjectDeps() {
		depSet[obj] = struct{}{}
	}

	for _, obj := range objs {
		if _, ok := depSet[obj]; !ok {
			continue
		}
		var victims []objectpath.Path
		for _, k := range sortedKeys(e.expressions) {
			b := e.expressions[k]
			for _, dep := range b.info.Expression.DepObjects() {
				if dep == obj {
					victims = append(victims, b.path)
					break
				}
			}
		}
		for _, p := range victims {
			if err := e.SetValue(ctx, p, nil, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdjustLinks runs the link adjustment pass over every binding referencing
// at least one object in inList: back-links are withdrawn, the expression
// checks that its references to those objects still resolve, and back-links
// are re-registered. The expression text is not rewritten by this pass.
// Returns whether any binding was processed. On failure the withdrawn
// back-links are restored before the wrapped error is returned.
func (e *Engine) AdjustLinks(ctx context.Context, inList []*document.Object) (bool, error) {
	if e.owner == nil {
		return false, nil
	}

	affected := make(map[*document.Object]struct{}, len(inList))
	for _, obj := range inList {
		affected[obj] = struct{}{}
	}

	adjusted := false
	opened := false
	defer func() {
		if opened {
			e.endChange()
		}
	}()

	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]

		needAdjust := false
		for _, dep := range b.info.Expression.DepObjects() {
			if dep == e.owner {
				continue
			}
			if _, ok := affected[dep]; ok {
				needAdjust = true
				break
			}
		}
		if !needAdjust {
			continue
		}

		if !opened {
			e.beginChange()
			opened = true
		}

		e.removeDeps(b.info.Expression)
		if err := b.info.Expression.AdjustLinks(inList); err != nil {
			e.addDeps(b.info.Expression)
			return adjusted, &AdjustLinkError{
				Owner:      e.owner.FullName(),
				Expression: b.info.Expression.String(),
				Err:        err,
			}
		}
		e.addDeps(b.info.Expression)

		e.expressionChanged(b.path)
		adjusted = true
		ctxlog.FromContext(ctx).Debug("Binding links adjusted.", "path", k)
	}
	return adjusted, nil
}

// DepsAreTouched reports whether any bound expression has touched inputs.
func (e *Engine) DepsAreTouched() bool {
	for _, b := range e.expressions {
		if b.info.Expression.Touched() {
			return true
		}
	}
	return false
}

// DocumentObjectDeps returns the distinct foreign objects referenced by the
// stored expressions, sorted by name.
func (e *Engine) DocumentObjectDeps() []*document.Object {
	seen := make(map[*document.Object]struct{})
	var out []*document.Object
	for _, k := range sortedKeys(e.expressions) {
		for _, obj := range e.expressions[k].info.Expression.DepObjects() {
			if obj == e.owner {
				continue
			}
			if _, ok := seen[obj]; !ok {
				seen[obj] = struct{}{}
				out = append(out, obj)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// PathsToDocumentObject returns every path the stored expressions reference
// under the given object. It returns nil when obj is the owner itself or
// the engine is detached.
func (e *Engine) PathsToDocumentObject(obj *document.Object) []objectpath.Path {
	if e.owner == nil || e.owner == obj {
		return nil
	}
	var out []objectpath.Path
	for _, k := range sortedKeys(e.expressions) {
		deps := e.expressions[k].info.Expression.Deps()
		byProp, ok := deps[obj]
		if !ok {
			continue
		}
		names := make([]string, 0, len(byProp))
		for name := range byProp {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, byProp[name]...)
		}
	}
	return out
}
