package payos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Sign builds the canonical string for data and returns its hex-encoded
// HMAC-SHA256 under checksumKey. The exact same canonicalization runs on
// outbound payment-link requests and inbound webhook payloads, so a genuine
// callback always verifies.
//
// Canonical form: keys sorted lexicographically, nil values normalized to the
// empty string, array values JSON-serialized with every nested object's keys
// sorted, pairs joined as key=value with '&'.
func Sign(data map[string]any, checksumKey string) string {
	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(Canonicalize(data)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against the expected HMAC in constant time.
func Verify(data map[string]any, signature, checksumKey string) bool {
	expected := Sign(data, checksumKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func Canonicalize(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]byte, 0, 128)
	for i, k := range keys {
		if i > 0 {
			out = append(out, '&')
		}
		out = append(out, k...)
		out = append(out, '=')
		out = append(out, valueString(data[k])...)
	}
	return string(out)
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []any:
		// Go's JSON encoder emits map keys in sorted order, which is the
		// order the provider signs with.
		b, err := json.Marshal(normalize(t))
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// normalize rewrites nils to empty strings recursively so serialized arrays
// match the provider's null handling.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}
