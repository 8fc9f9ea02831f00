package engine

// EvaluationOrder returns the canonical path strings of the bindings
// matching the output filter, in the order execute would evaluate them.
func (e *Engine) EvaluationOrder(output int) ([]string, error) {
	order, err := e.computeEvaluationOrder(output)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(order))
	for _, b := range order {
		out = append(out, b.path.Canonical().String())
	}
	return out, nil
}

// DependencyEdges returns the (output, dependency) path pairs of the current
// binding set, in stable order.
func (e *Engine) DependencyEdges() [][2]string {
	var out [][2]string
	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]
		for _, dep := range depPaths(b.info.Expression) {
			out = append(out, [2]string{k, dep.Canonical().String()})
		}
	}
	return out
}
