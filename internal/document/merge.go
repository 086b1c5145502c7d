package document

// Merge combines a base value with a partial patch and returns the next
// value. It is pure: neither argument is mutated, and the result shares no
// mutable state with the patch.
//
// Rules, per value kind of the patch:
//   - sequence: replaces the base wholesale, never spliced element-wise
//   - mapping over a mapping base: keys merge recursively; keys only in the
//     patch are added, keys only in the base are preserved
//   - anything else (scalar, or kind mismatch): the patch wins outright
//
// Re-applying the same patch to an already-merged result is a no-op, which
// lets the sender apply its own change optimistically and then re-apply the
// authoritative echo.
func Merge(base, patch any) any {
	switch KindOf(patch) {
	case KindSequence:
		return Clone(patch)
	case KindMapping:
		pm := patch.(map[string]any)
		bm, ok := base.(map[string]any)
		if !ok {
			return Clone(patch)
		}
		out := make(map[string]any, len(bm)+len(pm))
		for k, v := range bm {
			out[k] = v
		}
		for k, v := range pm {
			if bv, exists := bm[k]; exists {
				out[k] = Merge(bv, v)
			} else {
				out[k] = Clone(v)
			}
		}
		return out
	default:
		return patch
	}
}

// Apply merges a patch into a base document. A nil base behaves as an empty
// document.
func Apply(base, patch Document) Document {
	if base == nil {
		base = Document{}
	}
	next, _ := Merge(base, patch).(map[string]any)
	return next
}
