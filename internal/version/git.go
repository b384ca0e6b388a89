package version

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// FromGit derives the package version from the repository state.
//
// The base version comes from the version file unless an equal or
// newer tag exists, in which case the last tag's patch number is
// bumped. The build number counts commits since the base version was
// introduced, and the hash is the short HEAD commit.
func FromGit(ctx context.Context, runner shell.Runner, gitDir, versionFile string) (Semver, error) {
	contents, err := os.ReadFile(versionFile)
	if err != nil {
		return Semver{}, fmt.Errorf("read version file: %w", err)
	}

	firstLine, _, _ := strings.Cut(string(contents), "\n")

	current, err := Parse(firstLine, "")
	if err != nil {
		return Semver{}, err
	}

	headOut, err := runner.Output(ctx, gitDir, "git", "rev-parse", "--short=7", "HEAD")
	if err != nil {
		return Semver{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	head := strings.TrimSpace(string(headOut))

	var baseCommit string

	lastTagged, tagged := latestTaggedVersion(ctx, runner, gitDir)

	if !tagged || current.Compare(lastTagged) > 0 {
		// The version file moved ahead of the tags; count commits from
		// the commit that last touched it.
		commitOut, err := runner.Output(ctx, gitDir,
			"git", "log", "-n", "1", "--pretty=format:%H", "--", versionFile)
		if err != nil {
			return Semver{}, fmt.Errorf("find version file commit: %w", err)
		}

		baseCommit = strings.TrimSpace(string(commitOut))
	} else {
		// Otherwise continue from the last tag with the patch bumped.
		current = Semver{
			Major: lastTagged.Major,
			Minor: lastTagged.Minor,
			Patch: lastTagged.Patch + 1,
		}
		baseCommit = lastTagged.Hash
	}

	current.Build = commitsBetween(ctx, runner, gitDir, baseCommit, head)
	current.Hash = head

	return current, nil
}

// latestTaggedVersion returns the newest version-shaped tag reachable
// from HEAD, if any.
func latestTaggedVersion(ctx context.Context, runner shell.Runner, gitDir string) (Semver, bool) {
	out, err := runner.Output(ctx, gitDir,
		"git", "describe", "--tags", "--abbrev=0", "--match=[0-9]*.[0-9]*.[0-9]*")
	if err != nil {
		logger.Warnf(ctx, "Failed to list version tags: %v", err)
		return Semver{}, false
	}

	var versions []Semver

	for _, tag := range strings.Fields(string(out)) {
		v, err := Parse(tag, tag)
		if err != nil {
			continue
		}

		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return Semver{}, false
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})

	return versions[len(versions)-1], true
}

// commitsBetween counts commits in from..to, treating failures as zero.
func commitsBetween(ctx context.Context, runner shell.Runner, gitDir, from, to string) int {
	out, err := runner.Output(ctx, gitDir, "git", "rev-list", from+".."+to)
	if err != nil {
		logger.Warnf(ctx, "git rev-list failed: %v", err)
		return 0
	}

	return len(strings.Fields(string(out)))
}
