package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"héllo wörld", 6, "héllo…"},
		{"hello", 0, ""},
	}
	for _, tc := range cases {
		if got := ClipRunes(tc.in, tc.n); got != tc.want {
			t.Errorf("ClipRunes(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}

	long := strings.Repeat("日", MaxMessageLength+50)
	if n := utf8.RuneCountInString(ClipRunes(long, MaxMessageLength)); n != MaxMessageLength {
		t.Fatalf("clipped to %d characters", n)
	}
}
