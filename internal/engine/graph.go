package engine

import (
	"fmt"
	"sort"

	"github.com/vk/exprengine/internal/dag"
	"github.com/vk/exprengine/internal/document"
	"github.com/vk/exprengine/internal/expr"
	"github.com/vk/exprengine/internal/objectpath"
)

// Output filter values for graph construction and execute.
const (
	// FilterAll includes every binding.
	FilterAll = -1
	// FilterNonOutput includes only bindings on non-output properties.
	FilterNonOutput = 0
	// FilterOutput includes only bindings on output properties.
	FilterOutput = 1
)

// buildGraph constructs the dependency graph over the given bindings. Nodes
// are dense indices assigned first-come to every distinct canonical path,
// outputs and dependencies alike; edges point from output to dependency.
// revNodes maps indices back to paths for outputs only, so filtering a
// topological order against it drops pure inputs. A detected cycle is
// returned as a CyclicDependencyError quoting the back-edge source.
func (e *Engine) buildGraph(exprs map[string]binding, output int) (map[int]objectpath.Path, *dag.Graph, error) {
	nodes := make(map[string]int)
	revNodes := make(map[int]objectpath.Path)
	var edges [][2]int

	for _, k := range sortedKeys(exprs) {
		b := exprs[k]

		if output >= 0 {
			prop, _ := b.path.Property()
			if prop == nil {
				return nil, nil, fmt.Errorf("%w: %s", ErrPathInvalid, b.path.ResolveErrorString())
			}
			isOutput := prop.TestStatus(document.StatusOutput)
			if isOutput != (output > 0) {
				continue
			}
		}

		idx, ok := nodes[k]
		if !ok {
			idx = len(nodes)
			nodes[k] = idx
		}
		revNodes[idx] = b.path

		for _, dep := range depPaths(b.info.Expression) {
			depKey := dep.Canonical().String()
			depIdx, ok := nodes[depKey]
			if !ok {
				depIdx = len(nodes)
				nodes[depKey] = depIdx
			}
			edges = append(edges, [2]int{idx, depIdx})
		}
	}

	g := dag.New(len(nodes))
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, nil, err
		}
	}

	if src, cyclic := g.FindCycle(); cyclic {
		return nil, nil, &CyclicDependencyError{Path: revNodes[src].Canonical().String()}
	}
	return revNodes, g, nil
}

// depPaths flattens an expression's dependency grouping into a deterministic
// list of paths. Whole-object references (empty property name) contribute no
// paths and therefore no edges.
func depPaths(ex *expr.Expression) []objectpath.Path {
	deps := ex.Deps()

	objs := make([]*document.Object, 0, len(deps))
	for obj := range deps {
		objs = append(objs, obj)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name() < objs[j].Name() })

	var out []objectpath.Path
	for _, obj := range objs {
		byProp := deps[obj]
		names := make([]string, 0, len(byProp))
		for name := range byProp {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if name == "" {
				continue
			}
			out = append(out, byProp[name]...)
		}
	}
	return out
}

// computeEvaluationOrder builds the graph over the current bindings and
// returns them in dependencies-first topological order, restricted to the
// given output filter.
func (e *Engine) computeEvaluationOrder(output int) ([]binding, error) {
	revNodes, g, err := e.buildGraph(e.expressions, output)
	if err != nil {
		return nil, err
	}

	var order []binding
	for _, idx := range g.TopoOrder() {
		p, ok := revNodes[idx]
		if !ok {
			continue // a pure input; nothing to evaluate
		}
		order = append(order, e.expressions[e.key(p)])
	}
	return order, nil
}

// ValidateExpression checks whether binding ex at path would keep the engine
// consistent. It returns the empty string on success and a human-readable
// diagnostic otherwise. Checks run in order: the caller-supplied validator,
// the host graph's reverse-link closure (object-level cycles), and cycle
// detection over the hypothetical binding set.
func (e *Engine) ValidateExpression(p objectpath.Path, ex *expr.Expression) string {
	usePath, err := e.canonicalPath(p)
	if err != nil {
		return err.Error()
	}

	if e.validator != nil {
		if msg := e.validator(usePath, ex); msg != "" {
			return msg
		}
	}

	pathObj := usePath.DocumentObject()
	if pathObj == nil {
		return usePath.ResolveErrorString()
	}
	inList := pathObj.InListEx(true)
	for _, dep := range ex.DepObjects() {
		if _, cyclic := inList[dep]; cyclic {
			return fmt.Sprintf("cyclic reference to %s", dep.FullName())
		}
	}

	hypothetical := make(map[string]binding, len(e.expressions)+1)
	for k, b := range e.expressions {
		hypothetical[k] = b
	}
	hypothetical[e.key(usePath)] = binding{
		path: usePath,
		info: ExpressionInfo{Expression: ex.Copy()},
	}

	if _, _, err := e.buildGraph(hypothetical, FilterAll); err != nil {
		return err.Error()
	}
	return ""
}
