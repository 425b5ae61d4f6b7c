package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_TruncateString(t *testing.T) {
	testCases := []struct {
		name             string
		rawString        string
		borderSizeToKeep int
		wantTruncated    string
	}{
		{
			name:             "string is shorter than borderSizeToKeep",
			rawString:        "abc",
			borderSizeToKeep: 4,
			wantTruncated:    "abc",
		},
		{
			name:             "string is longer than borderSizeToKeep",
			rawString:        "abcdefg",
			borderSizeToKeep: 3,
			wantTruncated:    "abc...efg",
		},
		{
			name:             "string is empty",
			rawString:        "",
			borderSizeToKeep: 3,
			wantTruncated:    "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotTruncated := TruncateString(tc.rawString, tc.borderSizeToKeep)
			assert.Equal(t, tc.wantTruncated, gotTruncated)
		})
	}
}

func Test_MaskAddress(t *testing.T) {
	assert.Equal(t, "0x71C7...976F", MaskAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.Equal(t, "0x12", MaskAddress("0x12"))
	assert.Equal(t, "abcd...ghij", MaskAddress("abcdzzzzzzghij"))
}

func Test_ContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("nonce too low", "already known", "nonce too low"))
	assert.False(t, ContainsAny("insufficient funds", "nonce too low"))
	assert.False(t, ContainsAny("some message", "", "nomatch"))
	assert.False(t, ContainsAny("some message"))
}

func Test_SplitAndTrim(t *testing.T) {
	got := SplitAndTrim(" a, b\nc  d,,\n", ',', ' ', '\n')
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	assert.Empty(t, SplitAndTrim(" ,\n ", ',', ' ', '\n'))
}
