package engine

// ScriptPairs exposes the bindings to the host scripting layer as
// (path, expression) string pairs in stable key order.
func (e *Engine) ScriptPairs() [][2]string {
	out := make([][2]string, 0, len(e.expressions))
	for _, k := range sortedKeys(e.expressions) {
		b := e.expressions[k]
		out = append(out, [2]string{k, b.info.Expression.String()})
	}
	return out
}

// SetFromScript rejects script-layer writes; the binding store is mutated
// only through SetValue.
func (e *Engine) SetFromScript(any) error {
	return ErrReadOnly
}
