package document

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, s string) Document {
	t.Helper()
	var d Document
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestMergeDeepMappingPreservesSiblings(t *testing.T) {
	base := mustParse(t, `{"a":{"x":1,"y":2},"b":5}`)
	patch := mustParse(t, `{"a":{"y":9}}`)
	want := mustParse(t, `{"a":{"x":1,"y":9},"b":5}`)
	got := Apply(base, patch)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestMergeSequenceReplacesWholesale(t *testing.T) {
	base := mustParse(t, `{"inventory":["sword","shield","rope"]}`)
	patch := mustParse(t, `{"inventory":["wand"]}`)
	got := Apply(base, patch)
	inv, ok := got["inventory"].([]any)
	if !ok || len(inv) != 1 || inv[0] != "wand" {
		t.Fatalf("sequence not replaced: %v", got["inventory"])
	}
}

func TestMergeScalarOverwrite(t *testing.T) {
	cases := []struct {
		name        string
		base, patch string
		want        string
	}{
		{"number over number", `{"hp":10}`, `{"hp":7}`, `{"hp":7}`},
		{"string over number", `{"hp":10}`, `{"hp":"full"}`, `{"hp":"full"}`},
		{"mapping over scalar", `{"hp":10}`, `{"hp":{"current":7}}`, `{"hp":{"current":7}}`},
		{"scalar over mapping", `{"hp":{"current":7}}`, `{"hp":10}`, `{"hp":10}`},
		{"sequence over scalar", `{"hp":10}`, `{"hp":[1,2]}`, `{"hp":[1,2]}`},
		{"null over scalar", `{"hp":10}`, `{"hp":null}`, `{"hp":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(mustParse(t, tc.base), mustParse(t, tc.patch))
			want := mustParse(t, tc.want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %v want %v", got, want)
			}
		})
	}
}

func TestMergeIdempotentOnRepeat(t *testing.T) {
	base := mustParse(t, `{"hp":{"current":12,"max":20},"skills":["arcana"],"name":"Lyra"}`)
	patch := mustParse(t, `{"hp":{"current":7},"skills":["arcana","history"]}`)
	once := Apply(base, patch)
	twice := Apply(once, patch)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-applying patch changed result: %v vs %v", once, twice)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := mustParse(t, `{"a":{"x":1},"list":[1,2]}`)
	patch := mustParse(t, `{"a":{"y":2},"list":[3]}`)
	baseCopy := Clone(base).(map[string]any)
	patchCopy := Clone(patch).(map[string]any)

	got := Apply(base, patch)

	if !reflect.DeepEqual(base, baseCopy) {
		t.Fatalf("base mutated: %v", base)
	}
	if !reflect.DeepEqual(patch, patchCopy) {
		t.Fatalf("patch mutated: %v", patch)
	}
	// The result must not alias the patch's nested containers.
	got["a"].(map[string]any)["y"] = 99
	got["list"].([]any)[0] = 99
	if !reflect.DeepEqual(patch, patchCopy) {
		t.Fatalf("result aliases patch: %v", patch)
	}
}

func TestMergeKeyOnlyInPatchAdded(t *testing.T) {
	base := mustParse(t, `{"name":"Lyra"}`)
	patch := mustParse(t, `{"level":3}`)
	got := Apply(base, patch)
	want := mustParse(t, `{"name":"Lyra","level":3}`)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestApplyNilBase(t *testing.T) {
	patch := mustParse(t, `{"hp":{"current":7}}`)
	got := Apply(nil, patch)
	if !reflect.DeepEqual(got, patch) {
		t.Fatalf("got %v want %v", got, patch)
	}
}
