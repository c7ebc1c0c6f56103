package value

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Fingerprint returns a stable hash of the value's canonical JSON
// serialisation, used by the graph planner's visited set (spec §4.5,
// invariant 6) to decide whether a node has already run with this exact
// input. Object keys are sorted so two Values built from maps with
// different insertion order still fingerprint identically.
func Fingerprint(v Value) string {
	h := sha256.New()
	writeCanonical(h, v)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(h interface{ Write([]byte) (int, error) }, v Value) {
	switch v.kind {
	case KindNull:
		h.Write([]byte{0})
	case KindBool:
		if v.b {
			h.Write([]byte{1, 1})
		} else {
			h.Write([]byte{1, 0})
		}
	case KindNumber:
		h.Write([]byte{2})
		h.Write([]byte(v.JSON()))
	case KindString:
		h.Write([]byte{3})
		h.Write([]byte(v.s))
	case KindArray:
		h.Write([]byte{4})
		for _, item := range v.arr {
			writeCanonical(h, item)
		}
	case KindObject:
		h.Write([]byte{5})
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			writeCanonical(h, v.obj[k])
		}
	}
}
