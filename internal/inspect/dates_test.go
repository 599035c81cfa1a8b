package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalMonthYear(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"03/2024", "03/2024", true},  // already canonical
		{"13/2024", "", false},        // not a month
		{"2024-03-15", "03/2024", true},
		{"2024-03-15T10:30:00Z", "03/2024", true},
		{"2024-03-15T10:30:00", "03/2024", true},
		{"15/03/2024", "03/2024", true}, // day-first
		{"03/15/2024", "03/2024", true}, // month-first, detected by impossible month
		{"5/3/2024", "03/2024", true},
		{"15 March 2024", "03/2024", true},
		{"15 Mar 2024", "03/2024", true},
		{"March 15, 2024", "03/2024", true},
		{"March 2024", "03/2024", true},
		{"Mar 2024", "03/2024", true},
		{"15-03-2024", "03/2024", true},
		{"  2024-03-15  ", "03/2024", true}, // surrounding whitespace
		{"", "", false},
		{"not a date", "", false},
		{"15/15/2024", "", false}, // neither reading is a month
	}
	for _, tc := range cases {
		got, ok := CanonicalMonthYear(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestContainsMonthYear(t *testing.T) {
	assert.True(t, ContainsMonthYear("03/2024"))
	assert.True(t, ContainsMonthYear("statement for 12/1999"))
	assert.False(t, ContainsMonthYear("13/2024"))
	assert.False(t, ContainsMonthYear("3/2024"), "month must be zero-padded")
	assert.False(t, ContainsMonthYear("03/24"))
	assert.False(t, ContainsMonthYear(""))
}
