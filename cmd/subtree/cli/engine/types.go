// Package engine implements the split engine: the DAG walk that projects a
// mainline subdirectory into an independent subtree commit history, and the
// bookkeeping (cache, attributes, variables, annotation trailers) that makes
// repeated splits stable and incremental.
//
// The engine never touches a concrete version-control library directly; it
// talks to the host repository exclusively through the Service interface,
// so it can be exercised against a fake in tests as easily as against a
// real repository (see package gitservice for the go-git-backed
// implementation).
package engine

import "fmt"

// CommitId is an opaque commit identifier as returned by a Service.
// Equality is string equality; commits are immutable.
type CommitId string

// TreeId is an opaque tree identifier as returned by a Service.
type TreeId string

// Metadata holds the author/committer identity and timestamps carried
// verbatim from a source commit onto its synthesized subtree commit.
type Metadata struct {
	AuthorName     string
	AuthorEmail    string
	AuthorDate     string
	CommitterName  string
	CommitterEmail string
	CommitterDate  string
}

// EntryKind classifies what a path resolves to inside a commit's tree.
type EntryKind int

const (
	// EntryNone means the path does not exist in the tree.
	EntryNone EntryKind = iota
	// EntryTree means the path is a directory tree.
	EntryTree
	// EntrySubmodule means the path is a gitlink (submodule).
	EntrySubmodule
	// EntryOther means the path exists but is neither a tree nor a gitlink.
	EntryOther
)

func (k EntryKind) String() string {
	switch k {
	case EntryNone:
		return "none"
	case EntryTree:
		return "tree"
	case EntrySubmodule:
		return "submodule"
	default:
		return "other"
	}
}

// Tag is an attribute attached to a commit id, tracked across split runs.
type Tag string

// TagRedo marks a commit whose cache mapping was inherited from a prior
// split run and is considered stale; the engine recomputes it and fails
// with an actionable error if the recomputation disagrees, unless
// --remember reconciles the discrepancy.
const TagRedo Tag = "redo"

// Classification is the result of classifying a mainline commit.
type Classification int

const (
	// ClassMainlineTree means the commit is on the mainline and contains dir.
	ClassMainlineTree Classification = iota
	// ClassMainlineNoTree means the commit is on the mainline but dir is absent.
	ClassMainlineNoTree
	// ClassSplit means the commit is itself a subtree commit.
	ClassSplit
	// ClassSquash means the commit is a synthesized squash marker.
	ClassSquash
)

func (c Classification) String() string {
	switch c {
	case ClassMainlineTree:
		return "mainline:tree"
	case ClassMainlineNoTree:
		return "mainline:notree"
	case ClassSplit:
		return "split"
	case ClassSquash:
		return "squash"
	default:
		return "unknown"
	}
}

// Variables is the engine's scratch area of single-value entries, updated
// as the processor walks the mainline.
type Variables struct {
	// LatestSplit is the most recently rewritten subtree commit this run.
	LatestSplit CommitId
	// LatestMainline is the most recently visited mainline commit that
	// contained the subtree.
	LatestMainline CommitId
}

// Record is a parsed set of git-subtree-* trailers extracted from a commit
// message. Fields are empty when the corresponding trailer was absent.
type Record struct {
	Dir      string
	Mainline CommitId
	Split    CommitId
}

// HasMainline reports whether the record carries a mainline trailer.
func (r Record) HasMainline() bool { return r.Mainline != "" }

// HasSplit reports whether the record carries a split trailer.
func (r Record) HasSplit() bool { return r.Split != "" }

// Empty reports whether no trailers were found at all.
func (r Record) Empty() bool { return r.Dir == "" && r.Mainline == "" && r.Split == "" }

func (r Record) String() string {
	return fmt.Sprintf("Record{dir=%q mainline=%q split=%q}", r.Dir, r.Mainline, r.Split)
}
