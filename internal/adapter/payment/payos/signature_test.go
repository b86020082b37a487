package payos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testChecksumKey = "test-checksum-key"

func TestCanonicalize_SortsKeysAndNormalizesNil(t *testing.T) {
	data := map[string]any{
		"orderCode":   float64(42),
		"amount":      float64(100000),
		"description": "Booking deposit",
		"reference":   nil,
	}

	got := Canonicalize(data)

	assert.Equal(t, "amount=100000&description=Booking deposit&orderCode=42&reference=", got)
}

func TestCanonicalize_ArraySerializedWithSortedObjectKeys(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"price": float64(50000), "name": "Court A", "note": nil},
		},
	}

	got := Canonicalize(data)

	assert.Equal(t, `items=[{"name":"Court A","note":"","price":50000}]`, got)
}

func TestVerify_RoundTrip(t *testing.T) {
	data := map[string]any{
		"orderCode": float64(42),
		"amount":    float64(100000),
		"code":      "00",
		"desc":      "success",
	}

	sig := Sign(data, testChecksumKey)

	assert.True(t, Verify(data, sig, testChecksumKey))
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	data := map[string]any{
		"orderCode": float64(42),
		"amount":    float64(100000),
	}
	sig := Sign(data, testChecksumKey)

	data["amount"] = float64(1)

	assert.False(t, Verify(data, sig, testChecksumKey))
}

func TestVerify_RejectsCorruptSignature(t *testing.T) {
	data := map[string]any{"orderCode": float64(42)}
	sig := Sign(data, testChecksumKey)

	// Flip one hex digit.
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	assert.False(t, Verify(data, string(flipped), testChecksumKey))
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	data := map[string]any{"orderCode": float64(42)}
	sig := Sign(data, testChecksumKey)

	assert.False(t, Verify(data, sig, "another-key"))
}

func TestSign_IndependentOfInsertionOrder(t *testing.T) {
	a := map[string]any{"b": "2", "a": "1", "c": "3"}
	b := map[string]any{"c": "3", "a": "1", "b": "2"}

	assert.Equal(t, Sign(a, testChecksumKey), Sign(b, testChecksumKey))
}

func TestValueString_NumericForms(t *testing.T) {
	// Amounts decoded by encoding/json arrive as float64 and must render
	// without an exponent or trailing zeros.
	assert.Equal(t, "100000", valueString(float64(100000)))
	assert.Equal(t, "99.5", valueString(float64(99.5)))
	assert.Equal(t, "42", valueString(int64(42)))
	assert.Equal(t, "true", valueString(true))
	assert.Equal(t, "", valueString(nil))
}
