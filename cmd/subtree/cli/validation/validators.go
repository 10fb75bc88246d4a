// Package validation provides input validation for the subtree CLI. It has
// no dependencies of its own to avoid import cycles with the packages that
// use it (logging, engine, cli).
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pathSafeRegex matches alphanumeric characters, underscores, and hyphens
// only. Used for identifiers that are embedded in file paths.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateRunID validates that a run ID is safe to use as a log file name:
// non-empty and free of path separators or traversal sequences.
func ValidateRunID(id string) error {
	if id == "" {
		return errors.New("run ID cannot be empty")
	}
	if !pathSafeRegex.MatchString(id) {
		return fmt.Errorf("invalid run ID %q: must be alphanumeric with underscores/hyphens only", id)
	}
	return nil
}

// ValidatePrefix validates a --prefix argument: non-empty, relative, and
// free of ".." path traversal or a leading/trailing slash.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return errors.New("prefix cannot be empty")
	}
	if strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("invalid prefix %q: must be relative to the repository root", prefix)
	}
	if strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("invalid prefix %q: must not end with a slash", prefix)
	}
	for _, part := range strings.Split(prefix, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid prefix %q: contains an empty, \".\", or \"..\" path segment", prefix)
		}
	}
	return nil
}

// ValidateCommitish validates that a user-supplied commit reference
// (used in --onto, --notree, --remember, or a positional COMMIT argument)
// is non-empty and contains no whitespace, which would indicate the value
// was mistakenly split on the wrong delimiter upstream.
func ValidateCommitish(ref string) error {
	if ref == "" {
		return errors.New("commit reference cannot be empty")
	}
	if strings.ContainsAny(ref, " \t\n") {
		return fmt.Errorf("invalid commit reference %q: must not contain whitespace", ref)
	}
	return nil
}

// ValidateRememberPair validates the raw "BEFORE:AFTER" syntax of a
// --remember argument before it reaches engine.ParseRememberPair, so a
// malformed flag is reported as a UserError rather than an engine-level
// RememberError.
func ValidateRememberPair(s string) error {
	before, after, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("invalid --remember value %q: expected BEFORE:AFTER", s)
	}
	if err := ValidateCommitish(before); err != nil {
		return fmt.Errorf("invalid --remember BEFORE: %w", err)
	}
	if err := ValidateCommitish(after); err != nil {
		return fmt.Errorf("invalid --remember AFTER: %w", err)
	}
	return nil
}
