package keys

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Namespace is a fixed prefix put in front of every logical key so a cache can
// share a store with unrelated data.
type Namespace string

// Key returns the stored form of a logical key.
func (n Namespace) Key(key string) string {
	return string(n) + key
}

// Owns reports whether a stored key belongs to the namespace.
func (n Namespace) Owns(stored string) bool {
	return strings.HasPrefix(stored, string(n))
}

// Strip returns the logical key for a stored key. Keys outside the namespace
// are returned unchanged.
func (n Namespace) Strip(stored string) string {
	return strings.TrimPrefix(stored, string(n))
}

// Join builds a colon separated key, e.g. Join("rate", "USD", "EUR") is "rate:USD:EUR".
func Join(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprintf("%v", p)
	}
	return strings.Join(s, ":")
}

// We can MD5 sum it to "compress" the data into a fixed-size string
func HashKeyMD5(data ...any) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return md5Hex(jsonBytes), nil
}

// HashStructMD5SortedKeys takes a struct/array, sorts the JSON keys, and returns a stable MD5 hash.
func HashStructMD5SortedKeys(data any) (string, error) {
	sortedJsonData, err := marshalWithSortedKeys(data)
	if err != nil {
		return "", err
	}
	return md5Hex(sortedJsonData), nil
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// sortKeys ensures that the keys of maps are sorted in JSON serialization.
func sortKeys(data any) any {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sortedMap := make(map[string]any, len(v))
		for _, k := range keys {
			sortedMap[k] = sortKeys(v[k])
		}
		return sortedMap
	case []any:
		sortedArray := make([]any, len(v))
		for i, item := range v {
			sortedArray[i] = sortKeys(item)
		}
		return sortedArray
	default:
		return data
	}
}

// marshalWithSortedKeys round-trips the data through a generic value so struct
// field order and map iteration order do not affect the output.
func marshalWithSortedKeys(data any) ([]byte, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var genericData any
	if err := json.Unmarshal(jsonBytes, &genericData); err != nil {
		return nil, err
	}

	return json.Marshal(sortKeys(genericData))
}
