package pathexpr

// Leaf is one concrete location denoted by an expression.
type Leaf struct {
	// Path is the concrete field id with wildcard indices bound.
	Path    string
	Indices []int
	Value   any
}

// Resolve walks path against root. Without wildcards the result is the value
// found (nil when any segment is absent). Each wildcard turns the result into
// a []any mirroring the array structure walked; a wildcard over an empty or
// missing array yields an empty, non-nil []any. A trailing condition on path
// is ignored.
func Resolve(path string, root any) any {
	expr, err := Parse(path)
	if err != nil {
		return nil
	}
	return resolveSegments(expr.Segments, root)
}

func resolveSegments(segments []Segment, current any) any {
	for i, seg := range segments {
		if seg.Wildcard {
			items, _ := elements(current)
			out := make([]any, 0, len(items))
			for _, item := range items {
				out = append(out, resolveSegments(segments[i+1:], item))
			}
			return out
		}
		next, ok := child(current, seg)
		if !ok {
			next = nil
		}
		current = next
	}
	return current
}

// Expand flattens expr against root into ordered leaves, depth-first in index
// order. Expressions without wildcards always produce exactly one leaf.
//
// A wildcard over zero elements produces a single leaf valued "" at index 0
// instead of no leaves, so a required-style chain still runs once. Wildcards
// nested below the empty one are bound to 0 as well, so the leaf path is
// always concrete. This keeps
// compatibility with the intake forms that rely on it; it may be a latent bug
// upstream and is kept deliberately.
func Expand(expr Expression, root any) []Leaf {
	var leaves []Leaf
	expand(expr.Segments, expr.Field, root, nil, &leaves)
	return leaves
}

func expand(segments []Segment, field string, current any, indices []int, out *[]Leaf) {
	for i, seg := range segments {
		if !seg.Wildcard {
			next, ok := child(current, seg)
			if !ok {
				next = nil
			}
			current = next
			continue
		}

		items, _ := elements(current)
		if len(items) == 0 {
			bound := appendIndex(indices, 0)
			for _, rest := range segments[i+1:] {
				if rest.Wildcard {
					bound = appendIndex(bound, 0)
				}
			}
			*out = append(*out, Leaf{Path: Bind(field, bound), Indices: bound, Value: ""})
			return
		}
		for idx, item := range items {
			expand(segments[i+1:], field, item, appendIndex(indices, idx), out)
		}
		return
	}

	*out = append(*out, Leaf{Path: Bind(field, indices), Indices: indices, Value: current})
}

func appendIndex(indices []int, idx int) []int {
	out := make([]int, len(indices), len(indices)+1)
	copy(out, indices)
	return append(out, idx)
}
