package document

import "encoding/json"

// Document is an object-shaped JSON value keyed by field name.
type Document = map[string]any

// Kind classifies a JSON-compatible value. The merge algorithm switches
// over this closed set instead of duck-typing the underlying Go value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of a decoded JSON value. Values outside the JSON
// vocabulary (possible when documents are built in code rather than decoded)
// are classified as KindNull and behave as opaque scalars under Merge.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case json.Number:
		return KindNumber
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	default:
		return KindNull
	}
}

// Clone returns a deep copy of v. Sequences and mappings are copied
// recursively; scalars are returned as-is.
func Clone(v any) any {
	switch KindOf(v) {
	case KindSequence:
		src := v.([]any)
		out := make([]any, len(src))
		for i := range src {
			out[i] = Clone(src[i])
		}
		return out
	case KindMapping:
		src := v.(map[string]any)
		out := make(map[string]any, len(src))
		for k, val := range src {
			out[k] = Clone(val)
		}
		return out
	default:
		return v
	}
}
