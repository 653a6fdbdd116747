package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"500000", 50000000, false},
		{"500000.00", 50000000, false},
		{"499999.99", 49999999, false},
		{"0", 0, false},
		{"0.5", 50, false},
		{"123.5", 12350, false},
		{"-10.25", -1025, false},
		{" 40 ", 4000, false},
		{".99", 99, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.234", 0, true}, // three decimal places
		{".", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		assert.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "500000.00", Money(50000000).String())
	assert.Equal(t, "499999.99", Money(49999999).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-10.25", Money(-1025).String())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	original := Money(49999999)
	data, err := json.Marshal(original)
	assert.NoError(t, err)
	assert.Equal(t, `"499999.99"`, string(data))

	var decoded Money
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)

	// Bare numbers are accepted too (clients often send them).
	assert.NoError(t, json.Unmarshal([]byte(`500000`), &decoded))
	assert.Equal(t, Money(50000000), decoded)
}
