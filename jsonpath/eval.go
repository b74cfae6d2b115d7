// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonpath

// Eval evaluates q against doc (as produced by DecodeDocument), returning
// the ordered node list of spec §4.4. Each selector folds over the current
// candidate list; duplicates are allowed and document order is preserved
// throughout, including through recursive descent.
func Eval(q Query, doc interface{}) []interface{} {
	nodes := []interface{}{doc}
	for _, sel := range q.Selectors {
		nodes = applySelector(sel, nodes)
	}
	return nodes
}

func applySelector(sel Selector, nodes []interface{}) []interface{} {
	var out []interface{}
	for _, n := range nodes {
		out = append(out, applyToNode(sel, n)...)
	}
	return out
}

func applyToNode(sel Selector, n interface{}) []interface{} {
	switch s := sel.(type) {
	case NameChild:
		if obj, ok := n.(*Object); ok {
			if v, ok := obj.Get(s.Name); ok {
				return []interface{}{v}
			}
		}
		return nil
	case ObjectWildcard:
		if obj, ok := n.(*Object); ok {
			out := make([]interface{}, 0, len(obj.Keys))
			for _, k := range obj.Keys {
				out = append(out, obj.Values[k])
			}
			return out
		}
		return nil
	case ArrayIndex:
		arr, ok := n.([]interface{})
		if !ok {
			return nil
		}
		var out []interface{}
		for _, i := range s.Indices {
			idx := normalizeIndex(i, len(arr))
			if idx < 0 || idx >= len(arr) {
				continue // missing indices contribute nothing, no error
			}
			out = append(out, arr[idx])
		}
		return out
	case ArraySlice:
		arr, ok := n.([]interface{})
		if !ok {
			return nil
		}
		start, end := resolveSlice(s, len(arr))
		if start >= end {
			return nil
		}
		return append([]interface{}(nil), arr[start:end]...)
	case ArrayWildcard:
		arr, ok := n.([]interface{})
		if !ok {
			return nil
		}
		return append([]interface{}(nil), arr...)
	case RecursiveKey:
		var out []interface{}
		walkDocumentOrder(n, func(v interface{}) {
			if obj, ok := v.(*Object); ok {
				if val, ok := obj.Get(s.Name); ok {
					out = append(out, val)
				}
			}
		})
		return out
	case RecursiveWildcard:
		var out []interface{}
		walkDescendants(n, &out)
		return out
	case Filter:
		// A Filter applied to a non-array yields empty (§4.4).
		arr, ok := n.([]interface{})
		if !ok {
			return nil
		}
		var out []interface{}
		for _, el := range arr {
			if matchPredicate(s.Predicate, el) {
				out = append(out, el)
			}
		}
		return out
	}
	return nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

func resolveSlice(s ArraySlice, n int) (int, int) {
	start, end := 0, n
	if s.Start != nil {
		start = normalizeIndex(*s.Start, n)
	}
	if s.End != nil {
		end = normalizeIndex(*s.End, n)
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	if end < 0 {
		end = 0
	}
	return start, end
}

// walkDocumentOrder visits every node (object values, then array elements,
// in source order) including the root itself, calling visit for each
// (used by RecursiveKey — only objects can carry a named field).
func walkDocumentOrder(n interface{}, visit func(interface{})) {
	visit(n)
	switch v := n.(type) {
	case *Object:
		for _, k := range v.Keys {
			walkDocumentOrder(v.Values[k], visit)
		}
	case []interface{}:
		for _, el := range v {
			walkDocumentOrder(el, visit)
		}
	}
}

// walkDescendants appends every descendant of n (excluding n itself) to out,
// in document order, visiting each exactly once — the `$..*` invariant
// tested in spec §8.
func walkDescendants(n interface{}, out *[]interface{}) {
	switch v := n.(type) {
	case *Object:
		for _, k := range v.Keys {
			child := v.Values[k]
			*out = append(*out, child)
			walkDescendants(child, out)
		}
	case []interface{}:
		for _, el := range v {
			*out = append(*out, el)
			walkDescendants(el, out)
		}
	}
}

func matchPredicate(pred Predicate, node interface{}) bool {
	val, ok := resolveKeyPath(pred.KeyPath, node)
	if pred.Op == OpExists {
		return ok
	}
	if !ok {
		return false
	}
	return compareLiteral(pred.Op, val, pred.Value)
}

func resolveKeyPath(path []string, node interface{}) (interface{}, bool) {
	cur := node
	for _, key := range path {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		v, ok := obj.Get(key)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func compareLiteral(op Op, val interface{}, lit Literal) bool {
	if lit.IsString {
		s, ok := val.(string)
		if !ok {
			return false
		}
		return compareOrdered(op, s < lit.Str, s == lit.Str, s > lit.Str)
	}
	if lit.IsBool {
		b, ok := val.(bool)
		if !ok {
			return false
		}
		if op == OpEq {
			return b == lit.Bool
		}
		if op == OpNe {
			return b != lit.Bool
		}
		return false
	}
	f, ok := val.(float64)
	if !ok {
		return false
	}
	return compareOrdered(op, f < lit.Num, f == lit.Num, f > lit.Num)
}

func compareOrdered(op Op, lt, eq, gt bool) bool {
	switch op {
	case OpEq:
		return eq
	case OpNe:
		return !eq
	case OpLt:
		return lt
	case OpLe:
		return lt || eq
	case OpGt:
		return gt
	case OpGe:
		return gt || eq
	}
	return false
}
