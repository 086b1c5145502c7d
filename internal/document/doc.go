// Package document defines the JSON document model and the merge engine
// used to reconcile partial patches into character-sheet state.
//
// A Document is an object-shaped JSON value; no schema is enforced. Merge
// combines a base value with a patch under last-writer-wins semantics:
// mappings merge key-wise and recurse, sequences are replaced wholesale,
// everything else is overwritten by the patch. The same algorithm runs on
// the server and on every client replica, so it must stay pure and
// deterministic.
package document
