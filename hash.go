package mson

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Hash is the 32-byte BLAKE3 content fingerprint of a value.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// ContentHash computes a canonical fingerprint of v: the derived form is
// sanitized with enum values reduced, flattened to a single level with
// dot-joined compound keys, stripped of tag entries, key-sorted, and digested.
// The result is invariant to key order and to equivalent nestings of the same
// flattened key/value set; it changes whenever any non-tag leaf changes.
func ContentHash(v any) (Hash, error) {
	d, err := deriveOrDict(v, newVisitSet())
	if err != nil {
		return Hash{}, err
	}
	clean, err := Sanitize(d, SanitizeOptions{EnumValues: true})
	if err != nil {
		return Hash{}, err
	}
	m, ok := clean.(map[string]any)
	if !ok {
		m = map[string]any{"value": clean}
	}
	flat := flatten(m, ".")

	keys := make([]string, 0, len(flat))
	for k := range flat {
		if strings.Contains(k, "@") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]any, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]any{k, flat[k]})
	}
	payload, err := getDriver().Marshal(pairs)
	if err != nil {
		return Hash{}, wrapError(CodeParse, "marshal failed", err)
	}
	return Hash(blake3.Sum256(payload)), nil
}

// flatten reduces nested maps and lists to a single-level map. List entries
// become numeric path segments ("key.0", "key.1", ...).
func flatten(m map[string]any, sep string) map[string]any {
	flat := map[string]any{}
	for key, value := range m {
		switch v := value.(type) {
		case map[string]any:
			for nk, nv := range flatten(v, sep) {
				flat[key+sep+nk] = nv
			}
		case []any:
			indexed := make(map[string]any, len(v))
			for i, item := range v {
				indexed[key+sep+strconv.Itoa(i)] = item
			}
			for nk, nv := range flatten(indexed, sep) {
				flat[nk] = nv
			}
		default:
			flat[key] = value
		}
	}
	return flat
}
