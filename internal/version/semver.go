package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errInvalidVersion is returned for strings that are not dotted versions.
var errInvalidVersion = errors.New("invalid version string")

// Semver is a package version with an optional build number counting
// commits since the version was set, and the commit hash it points at.
type Semver struct {
	Major int
	Minor int
	Patch int
	Build int
	// Hash is the git reference this version was derived from.
	Hash string
}

// Parse reads "major.minor[.patch[.build]]" into a Semver.
func Parse(s string, hash string) (Semver, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return Semver{}, fmt.Errorf("%w: %q", errInvalidVersion, s)
	}

	numbers := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Semver{}, fmt.Errorf("%w: %q", errInvalidVersion, s)
		}

		numbers[i] = n
	}

	v := Semver{
		Major: numbers[0],
		Minor: numbers[1],
		Hash:  hash,
	}
	if len(numbers) > 2 {
		v.Patch = numbers[2]
	}

	if len(numbers) > 3 {
		v.Build = numbers[3]
	}

	return v, nil
}

// String renders the four-part version number.
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

// Long renders the version number with the commit hash appended.
func (v Semver) Long() string {
	return fmt.Sprintf("%s-%s", v.String(), v.Hash)
}

// Compare orders versions component-wise. It returns a negative value
// when v is older than other, zero when equal, positive when newer.
func (v Semver) Compare(other Semver) int {
	for _, pair := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
		{v.Build, other.Build},
	} {
		if pair[0] != pair[1] {
			return pair[0] - pair[1]
		}
	}

	return 0
}
