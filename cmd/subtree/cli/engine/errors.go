package engine

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// InternalError signals an invariant violation inside the engine itself —
// a bug, not a user or repository-state problem. Callers should treat it as
// fatal; it is never returned to "recover" from.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// ConsistencyError reports a cache conflict: a commit was about to be
// re-mapped to a value that disagrees with either its existing mapping or,
// for a redo-tagged commit, its prior split's recorded mapping. Prior and
// New are rendered as a unified diff when both carry commit messages, so
// the "split is not idempotent" report is actionable.
type ConsistencyError struct {
	Commit    CommitId
	Prior     CacheValue
	New       CacheValue
	PriorMsg  string
	NewMsg    string
	RedoStack []CommitId
}

func (e *ConsistencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "split is not idempotent: commit %s was previously mapped to %v, now computed as %v", e.Commit, e.Prior, e.New)
	if len(e.RedoStack) > 0 {
		fmt.Fprintf(&b, "\nredo stack: %s", joinCommits(e.RedoStack))
	}
	if e.PriorMsg != "" && e.NewMsg != "" && e.PriorMsg != e.NewMsg {
		b.WriteString("\n\n")
		b.WriteString(messageDiff(e.PriorMsg, e.NewMsg))
	}
	if newID, ok := AsCommit(e.New); ok {
		fmt.Fprintf(&b, "\n\nto reconcile, rerun with --remember %s:%s", e.Commit, newID)
	}
	return b.String()
}

func joinCommits(ids []CommitId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}

// messageDiff renders a unified-looking diff between two commit messages
// using diffmatchpatch, so a reconciliation failure shows exactly what
// differs rather than only the two commit ids.
func messageDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffPrettyText(diffs)
}

// RememberError reports that a --remember BEFORE:AFTER pair failed one of
// the validation checks in section 4.8.
type RememberError struct {
	Before CommitId
	After  CommitId
	Reason string
}

func (e *RememberError) Error() string {
	return fmt.Sprintf("--remember %s:%s rejected: %s", e.Before, e.After, e.Reason)
}
