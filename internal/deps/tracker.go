package deps

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/longomatch/gstreamer-packager/internal/logger"
	"github.com/longomatch/gstreamer-packager/internal/shell"
)

// visitState tracks where a binary is in the current traversal.
type visitState int

const (
	stateUnvisited visitState = iota
	stateInProgress
	stateProcessed
)

// Tracker computes dependency closures under a single install prefix.
type Tracker struct {
	// prefix is the framework installation root; dependencies outside
	// it are treated as system libraries and excluded.
	prefix string
	// lister is the platform strategy chosen at construction.
	lister Lister
}

// NewTracker builds a Tracker for the platform using the host tool runner.
func NewTracker(platform Platform, prefix string) (*Tracker, error) {
	lister, err := NewLister(platform, shell.NewRunner())
	if err != nil {
		return nil, err
	}

	return NewTrackerWithLister(prefix, lister), nil
}

// NewTrackerWithLister builds a Tracker around an explicit Lister.
func NewTrackerWithLister(prefix string, lister Lister) *Tracker {
	return &Tracker{
		prefix: prefix,
		lister: lister,
	}
}

// ListDeps returns the transitive closure of shared libraries required
// by the entry points, as a sorted set of absolute, symlink-resolved
// paths. Entry points that do not exist are skipped; every path in the
// result exists at the time of computation.
func (t *Tracker) ListDeps(ctx context.Context, entryPoints []string) ([]string, error) {
	// Traversal state must be fresh for every call: it is shared across
	// entry points within the call, never across calls.
	var (
		state   = make(map[string]visitState, len(entryPoints))
		ordered = make([]string, 0, len(entryPoints))
		found   = make(map[string]struct{}, len(entryPoints))
	)

	for _, entry := range entryPoints {
		if _, err := os.Stat(entry); err != nil {
			logger.DebugKV(ctx, "Skipping missing entry point", "path", entry)
			continue
		}

		resolved, err := filepath.EvalSymlinks(entry)
		if err != nil {
			logger.WarnKV(ctx, "Skipping unresolvable entry point", "path", entry, "error", err)
			continue
		}

		if err := t.findDeps(ctx, resolved, state, &ordered); err != nil {
			return nil, err
		}

		found[entry] = struct{}{}
	}

	for _, lib := range ordered {
		found[lib] = struct{}{}
	}

	return canonicalize(found), nil
}

// findDeps expands a binary depth-first. A binary already in progress
// closes a cycle and is not descended into again; a processed one is
// safe to revisit without recursion.
func (t *Tracker) findDeps(ctx context.Context, lib string, state map[string]visitState, ordered *[]string) error {
	switch state[lib] {
	case stateInProgress, stateProcessed:
		return nil
	case stateUnvisited:
	}

	state[lib] = stateInProgress

	// Unresolved placeholder fallbacks may name files that are not on
	// disk; they stay in the walk order but are not expanded, and the
	// final realpath pass drops them.
	if _, err := os.Stat(lib); err == nil {
		libDeps, err := t.lister.ListFileDeps(ctx, t.prefix, lib)
		if err != nil {
			return err
		}

		for _, libDep := range libDeps {
			if err := t.findDeps(ctx, libDep, state, ordered); err != nil {
				return err
			}
		}
	}

	state[lib] = stateProcessed
	*ordered = append(*ordered, lib)

	return nil
}

// canonicalize resolves every collected path to its real location,
// dropping paths that no longer exist, and returns a sorted slice.
func canonicalize(found map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(found))
	result := make([]string, 0, len(found))

	for path := range found {
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}

		if _, dup := seen[real]; dup {
			continue
		}

		seen[real] = struct{}{}
		result = append(result, real)
	}

	sort.Strings(result)

	return result
}
