// SPDX-License-Identifier: MPL-2.0

// Package gitver resolves the version-control inputs a recipe template
// consumes: the most recent tag and the commit distance since it.
//
// The packaging tool exports GIT_DESCRIBE_TAG and GIT_DESCRIBE_NUMBER into
// the environment before rendering; when those are present they win.
// Otherwise the values are read from the surrounding repository checkout via
// `git describe`.
package gitver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	// EnvDescribeTag is the environment variable carrying the tag.
	EnvDescribeTag = "GIT_DESCRIBE_TAG"
	// EnvDescribeNumber is the environment variable carrying the commit distance.
	EnvDescribeNumber = "GIT_DESCRIBE_NUMBER"
)

// ErrMalformedDescribe is the sentinel error wrapped by MalformedDescribeError.
var ErrMalformedDescribe = errors.New("malformed git describe output")

type (
	// Describe holds the version-control state a recipe is rendered against.
	Describe struct {
		// Tag is the most recent tag, conventionally prefixed with "v".
		Tag string
		// Distance is the number of commits since Tag.
		Distance int
		// Commit is the abbreviated commit hash, when known.
		Commit string
	}

	// MalformedDescribeError is returned when `git describe` output or the
	// environment overrides cannot be parsed.
	MalformedDescribeError struct {
		Output string
		Reason string
	}
)

// Error implements the error interface.
func (e *MalformedDescribeError) Error() string {
	return fmt.Sprintf("malformed git describe output %q: %s", e.Output, e.Reason)
}

// Unwrap returns ErrMalformedDescribe for errors.Is() compatibility.
func (e *MalformedDescribeError) Unwrap() error { return ErrMalformedDescribe }

// Resolve returns describe state from the environment when the packaging tool
// exported it, falling back to the repository checkout at dir.
func Resolve(ctx context.Context, dir string) (*Describe, error) {
	if d, ok, err := FromEnv(); err != nil {
		return nil, err
	} else if ok {
		return d, nil
	}
	return FromRepository(ctx, dir)
}

// FromEnv reads GIT_DESCRIBE_TAG and GIT_DESCRIBE_NUMBER. The second return
// value reports whether the tag variable was set at all.
func FromEnv() (*Describe, bool, error) {
	tag, ok := os.LookupEnv(EnvDescribeTag)
	if !ok {
		return nil, false, nil
	}

	d := &Describe{Tag: tag}
	if num := os.Getenv(EnvDescribeNumber); num != "" {
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 {
			return nil, true, &MalformedDescribeError{
				Output: num,
				Reason: fmt.Sprintf("%s must be a non-negative integer", EnvDescribeNumber),
			}
		}
		d.Distance = n
	}
	return d, true, nil
}

// FromRepository shells out to `git describe --tags --long` in dir and parses
// the result.
func FromRepository(ctx context.Context, dir string) (*Describe, error) {
	cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--long")
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("git describe in %s: %s", dir, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git describe in %s: %w", dir, err)
	}

	return ParseDescribe(strings.TrimSpace(string(out)))
}

// ParseDescribe parses `git describe --tags --long` output of the form
// <tag>-<distance>-g<hash>. Tags may themselves contain hyphens, so the
// output is split from the right.
func ParseDescribe(out string) (*Describe, error) {
	hashSep := strings.LastIndex(out, "-g")
	if hashSep < 0 {
		return nil, &MalformedDescribeError{Output: out, Reason: "missing -g<hash> suffix"}
	}
	commit := out[hashSep+2:]
	if commit == "" {
		return nil, &MalformedDescribeError{Output: out, Reason: "empty commit hash"}
	}

	rest := out[:hashSep]
	distSep := strings.LastIndex(rest, "-")
	if distSep < 0 {
		return nil, &MalformedDescribeError{Output: out, Reason: "missing commit distance"}
	}

	distance, err := strconv.Atoi(rest[distSep+1:])
	if err != nil || distance < 0 {
		return nil, &MalformedDescribeError{Output: out, Reason: "commit distance is not a non-negative integer"}
	}

	tag := rest[:distSep]
	if tag == "" {
		return nil, &MalformedDescribeError{Output: out, Reason: "empty tag"}
	}

	return &Describe{Tag: tag, Distance: distance, Commit: commit}, nil
}
