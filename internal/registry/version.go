package registry

import (
	"fmt"
	"regexp"
	"strings"
)

type semver struct {
	major int
	minor int
	patch int
}

var semverRe = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)`)

func parseSemver(v string) (semver, error) {
	m := semverRe.FindStringSubmatch(strings.TrimSpace(v))
	if len(m) != 4 {
		return semver{}, fmt.Errorf("invalid semver")
	}
	var out semver
	if _, err := fmt.Sscanf(m[0], "v%d.%d.%d", &out.major, &out.minor, &out.patch); err != nil {
		if _, err := fmt.Sscanf(m[0], "%d.%d.%d", &out.major, &out.minor, &out.patch); err != nil {
			return semver{}, err
		}
	}
	return out, nil
}

// CompareVersions orders two declared version strings. Both parseable as
// semver: numeric major.minor.patch order. Otherwise the strings compare
// lexicographically, which keeps unparseable versions orderable instead of
// blocking uploads.
func CompareVersions(a, b string) int {
	va, errA := parseSemver(a)
	vb, errB := parseSemver(b)
	if errA == nil && errB == nil {
		if va.major != vb.major {
			return cmpInt(va.major, vb.major)
		}
		if va.minor != vb.minor {
			return cmpInt(va.minor, vb.minor)
		}
		return cmpInt(va.patch, vb.patch)
	}
	return strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
