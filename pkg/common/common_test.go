package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64Increasing(t *testing.T) {
	a := UUIDint64()
	b := UUIDint64()
	assert.Greater(t, a, int64(0))
	assert.Greater(t, b, a)
}

func TestParseIDs(t *testing.T) {
	ids := ParseIDs([]interface{}{"12", " 34 ", float64(56), "12", "abc", "", "-4", nil})
	assert.Equal(t, []int64{12, 34, 56}, ids)
	assert.Empty(t, ParseIDs(nil))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID(json.Number("1790000000000000123"))
	assert.True(t, ok)
	assert.Equal(t, int64(1790000000000000123), id)

	_, ok = ParseID(2.5)
	assert.False(t, ok)
	_, ok = ParseID(json.Number("1e3"))
	assert.False(t, ok)
	_, ok = ParseID(true)
	assert.False(t, ok)

	for raw, want := range map[string]int64{"010": 10, "08": 8, "09": 9, " 42 ": 42} {
		id, ok := ParseID(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, id, raw)
	}
	for _, raw := range []string{"0x1F", "1_000", "0b11"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}

func TestIsBlankOrPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "undefined", "null"} {
		assert.True(t, IsBlankOrPlaceholder(v), v)
	}
	assert.False(t, IsBlankOrPlaceholder("Glassware"))
}
