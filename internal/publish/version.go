package publish

import (
	"fmt"
	"strconv"
	"strings"
)

// FirstVersion is the version assigned on a product's first publish.
const FirstVersion = "1.0.0"

// NextVersion bumps the patch component of a prior semantic version. A prior
// that does not parse as semver, empty included, defaults the base to the
// first version before bumping.
func NextVersion(prior string) string {
	major, minor, patch, ok := parseSemver(prior)
	if !ok {
		major, minor, patch, _ = parseSemver(FirstVersion)
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}

// canonicalVersion returns v when it parses as semver and the first version
// otherwise.
func canonicalVersion(v string) string {
	if _, _, _, ok := parseSemver(v); ok {
		return strings.TrimSpace(v)
	}
	return FirstVersion
}

func parseSemver(v string) (major, minor, patch int, ok bool) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}
