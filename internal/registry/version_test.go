package registry

import "testing"

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.2.3", "1.10.0", -1},
		{"v1.0.0", "1.0.0", 0},
		{"0.0.1", "0.0.2", -1},
		{"10.0.0", "9.0.0", 1},
		// Non-semver strings fall back to lexical comparison.
		{"build-a", "build-b", -1},
		{"build-a", "build-a", 0},
	}
	for _, c := range cases {
		got := CompareVersions(c.a, c.b)
		if sign(got) != c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
