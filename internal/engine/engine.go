package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/exprengine/internal/ctxlog"
	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/expr"
	"github.com/vk/exprengine/internal/objectpath"
)

// ExpressionInfo is the payload of a binding: the bound expression and an
// optional free-form comment.
type ExpressionInfo struct {
	Expression *expr.Expression
	Comment    string
}

// binding pairs the stored payload with the canonical path it is keyed by.
type binding struct {
	path objectpath.Path
	info ExpressionInfo
}

// Validator is an optional caller-supplied check run before the engine's own
// validation. A non-empty return is the rejection diagnostic.
type Validator func(path objectpath.Path, ex *expr.Expression) string

// Engine binds expressions to property paths of its owning object.
type Engine struct {
	owner *document.Object

	// expressions is the live binding store, keyed by canonical path string.
	expressions map[string]binding
	// restored stages bindings parsed during Restore until the document
	// reports restore completion.
	restored []binding

	running     bool
	changeDepth int
	touched     bool
	validator   Validator

	onChanged    func(objectpath.Path)
	onAboutToSet func()
	onHasSet     func()
}

// New creates an engine owned by obj. A nil owner produces a detached engine
// (as used by Copy); most operations on a detached engine fail with
// ErrNotOwned. An owned engine registers itself for the document's rename,
// delete, and restore-complete signals.
func New(owner *document.Object) *Engine {
	e := &Engine{
		owner:       owner,
		expressions: make(map[string]binding),
	}
	if owner != nil && owner.Document() != nil {
		doc := owner.Document()
		doc.ObserveRename(func(obj *document.Object, oldName string) {
			e.OnObjectRenamed(context.Background(), obj, oldName)
		})
		doc.ObserveDelete(func(obj *document.Object) {
			e.OnObjectDeleted(context.Background(), obj)
		})
		doc.ObserveRestored(func() error {
			return e.OnDocumentRestored(context.Background())
		})
	}
	return e
}

// Owner returns the owning document object, or nil for a detached engine.
func (e *Engine) Owner() *document.Object {
	return e.owner
}

// SetValidator installs the optional validation callback.
func (e *Engine) SetValidator(v Validator) {
	e.validator = v
}

// SetChangedHandler installs the callback fired after a binding is added,
// removed, or visibly rewritten.
func (e *Engine) SetChangedHandler(fn func(path objectpath.Path)) {
	e.onChanged = fn
}

// SetChangeScopeHandlers installs the outer mutation bracket callbacks.
func (e *Engine) SetChangeScopeHandlers(aboutToSet, hasSet func()) {
	e.onAboutToSet = aboutToSet
	e.onHasSet = hasSet
}

// beginChange opens an atomic change scope. Scopes nest; only the outermost
// open fires aboutToSetValue and only the outermost close fires hasSetValue.
// Callers must pair every beginChange with a deferred endChange so the scope
// unwinds on error.
func (e *Engine) beginChange() {
	if e.changeDepth == 0 && e.onAboutToSet != nil {
		e.onAboutToSet()
	}
	e.changeDepth++
}

func (e *Engine) endChange() {
	e.changeDepth--
	if e.changeDepth == 0 && e.onHasSet != nil {
		e.onHasSet()
	}
}

func (e *Engine) expressionChanged(p objectpath.Path) {
	if e.onChanged != nil {
		e.onChanged(p)
	}
}

// key derives the store key for a path.
func (e *Engine) key(p objectpath.Path) string {
	return p.Canonical().String()
}

// canonicalPath resolves and normalizes a path for use as a store key. Paths
// that point into a property's interior or at a foreign container are
// returned unchanged; only direct properties of the owner canonicalize.
func (e *Engine) canonicalPath(p objectpath.Path) (objectpath.Path, error) {
	if e.owner == nil {
		return objectpath.Path{}, ErrNotOwned
	}
	prop, kind := p.Property()
	if prop == nil {
		return objectpath.Path{}, fmt.Errorf("%w: %s", ErrPathInvalid, p.ResolveErrorString())
	}
	if kind != objectpath.KindProperty || prop.Container() != e.owner {
		return p, nil
	}
	return p.Canonical(), nil
}

// sortedKeys returns the store keys of m in stable order.
func sortedKeys(m map[string]binding) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addDeps registers back-links from every foreign dependency object of ex to
// the owner.
func (e *Engine) addDeps(ex *expr.Expression) {
	if e.owner == nil {
		return
	}
	for _, obj := range ex.DepObjects() {
		if obj != e.owner {
			obj.AddBackLink(e.owner)
		}
	}
}

// removeDeps withdraws the back-links registered by addDeps.
func (e *Engine) removeDeps(ex *expr.Expression) {
	if e.owner == nil {
		return
	}
	for _, obj := range ex.DepObjects() {
		if obj != e.owner {
			obj.RemoveBackLink(e.owner)
		}
	}
}

// GetValue looks up the binding for a path, accepting any path form.
func (e *Engine) GetValue(p objectpath.Path) (ExpressionInfo, bool) {
	usePath, err := e.canonicalPath(p)
	if err != nil {
		return ExpressionInfo{}, false
	}
	b, ok := e.expressions[e.key(usePath)]
	if !ok {
		return ExpressionInfo{}, false
	}
	return b.info, true
}

// NumBindings returns the number of stored bindings.
func (e *Engine) NumBindings() int {
	return len(e.expressions)
}

// Bindings returns a snapshot of the store with deep-copied expressions,
// keyed by canonical path string.
func (e *Engine) Bindings() map[string]ExpressionInfo {
	out := make(map[string]ExpressionInfo, len(e.expressions))
	for k, b := range e.expressions {
		out[k] = ExpressionInfo{Expression: b.info.Expression.Copy(), Comment: b.info.Comment}
	}
	return out
}

// SetValue installs, replaces, or (with a nil expression) removes the
// binding for a path. Installation validates the expression first; the store
// is untouched when validation fails.
func (e *Engine) SetValue(ctx context.Context, p objectpath.Path, ex *expr.Expression, comment string) error {
	logger := ctxlog.FromContext(ctx)

	usePath, err := e.canonicalPath(p)
	if err != nil {
		return err
	}
	// A path must support value reads to accept a binding.
	if _, err := usePath.GetValue(); err != nil {
		return fmt.Errorf("%w: %v", ErrPathInvalid, err)
	}

	k := e.key(usePath)
	cur, exists := e.expressions[k]

	// Rebinding the identical expression object is a no-op.
	if exists && ex == cur.info.Expression {
		return nil
	}

	if ex != nil {
		if msg := e.ValidateExpression(usePath, ex); msg != "" {
			return &ValidationError{Message: msg}
		}

		e.beginChange()
		defer e.endChange()

		// Withdraw the replaced binding's links first so the same object
		// dependency is never registered twice for one key.
		if exists {
			e.removeDeps(cur.info.Expression)
		}

		clone := ex.Copy()
		e.expressions[k] = binding{path: usePath, info: ExpressionInfo{Expression: clone, Comment: comment}}
		e.addDeps(clone)

		logger.Debug("Expression bound.", "path", k, "expression", clone.String())
		e.expressionChanged(usePath)
		return nil
	}

	e.beginChange()
	defer e.endChange()

	if exists {
		e.removeDeps(cur.info.Expression)
		delete(e.expressions, k)
	}
	logger.Debug("Expression unbound.", "path", k)
	e.expressionChanged(usePath)
	return nil
}

// Touched reports whether the engine has been marked dirty, e.g. by the
// deletion of a referenced object.
func (e *Engine) Touched() bool {
	return e.touched
}

// touch marks the engine and its owner dirty so the next recompute surfaces
// a proper error.
func (e *Engine) touch() {
	e.touched = true
	if e.owner != nil {
		e.owner.Touch()
	}
}
