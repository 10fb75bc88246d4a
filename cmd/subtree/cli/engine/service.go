package engine

import "context"

// Entry is the result of resolving a path inside a commit's tree.
type Entry struct {
	Kind EntryKind
	Tree TreeId
}

// Service is the repository service the engine talks to for every
// object-graph query and every commit-creation operation it needs. The
// engine package never imports a concrete version-control library; it is
// exercised against this interface alone, so it runs identically against a
// fake in tests and against gitservice's go-git-backed implementation in
// production.
type Service interface {
	// Parents returns c's parents in declaration order.
	Parents(ctx context.Context, c CommitId) ([]CommitId, error)
	// RootTree returns the root tree of c.
	RootTree(ctx context.Context, c CommitId) (TreeId, error)
	// Entry resolves path inside c's tree. A missing path reports EntryNone.
	Entry(ctx context.Context, c CommitId, path string) (Entry, error)
	// Resolve turns a ref (branch, tag, or commit-ish) into a CommitId.
	Resolve(ctx context.Context, ref string) (CommitId, error)
	// Exists reports whether ref resolves to anything.
	Exists(ctx context.Context, ref string) (bool, error)
	// Message returns c's full commit message body.
	Message(ctx context.Context, c CommitId) (string, error)
	// Metadata returns c's author/committer identity and timestamps.
	Metadata(ctx context.Context, c CommitId) (Metadata, error)
	// ShortHash returns the shortest unambiguous hex form of c.
	ShortHash(ctx context.Context, c CommitId) (string, error)
	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, ancestor, descendant CommitId) (bool, error)
	// SelectIndependentTips drops every commit in ids that is an ancestor of
	// another commit in ids.
	SelectIndependentTips(ctx context.Context, ids []CommitId) ([]CommitId, error)
	// CountBetween counts commits reachable from include but not from exclude.
	CountBetween(ctx context.Context, exclude, include CommitId) (int, error)

	// CreateCommit synthesizes and persists a new commit object.
	CreateCommit(ctx context.Context, tree TreeId, parents []CommitId, meta Metadata, message string) (CommitId, error)
	// UpdateRef points name at c, creating it if necessary.
	UpdateRef(ctx context.Context, name string, c CommitId) error
	// Merge merges c into the current HEAD without committing, honoring an
	// optional merge strategy option (e.g. "subtree").
	Merge(ctx context.Context, c CommitId, strategyOption string) error
	// Fetch retrieves refspec from repo.
	Fetch(ctx context.Context, repo, refspec string) error
	// Push sends refspec to repo.
	Push(ctx context.Context, repo, refspec string) error
	// ReadTreeIntoPrefix stages c's tree under prefix in the working tree.
	ReadTreeIntoPrefix(ctx context.Context, c CommitId, prefix string) error
	// WriteTree writes the current index as a tree object and returns its id.
	WriteTree(ctx context.Context) (TreeId, error)
}
