package engine

import (
	"context"
	"fmt"

	"github.com/subtreecli/subtree/cmd/subtree/cli/trailers"
)

// SquashSummary is an opaque, possibly multi-line string produced by the
// repository service describing the commits collapsed into a squash. The
// engine never re-synthesizes it; it only embeds it in the squash message.
type SquashSummary string

// Squash implements section 4.9's squash synthesis: a new commit with
// newsub's root tree, parented on oldsub's squash commit (if any), and a
// message carrying summary plus the {dir, split} trailers.
func Squash(ctx context.Context, svc Service, dir string, oldsub, newsub CommitId, summary SquashSummary) (CommitId, error) {
	tree, err := svc.RootTree(ctx, newsub)
	if err != nil {
		return "", err
	}
	meta, err := svc.Metadata(ctx, newsub)
	if err != nil {
		return "", err
	}

	var parents []CommitId
	if oldsub != "" {
		parents = []CommitId{oldsub}
	}

	// newsub is itself an already-synthesized subtree commit (an identity
	// mapping); the squash marker's split trailer points at it, not at the
	// squash marker's own (not-yet-known) hash.
	message := fmt.Sprintf("Squashed '%s/' changes from %s\n\n%s", dir, shortRange(oldsub, newsub), string(summary))
	final := trailers.FormatSquash(message, dir, string(newsub))
	return svc.CreateCommit(ctx, tree, parents, meta, final)
}

func shortRange(oldsub, newsub CommitId) string {
	if oldsub == "" {
		return string(newsub)
	}
	return fmt.Sprintf("%s..%s", oldsub, newsub)
}

// Add implements the add shape in section 4.9: a merge commit combining the
// current working-tree write (baseTree, typically produced by
// ReadTreeIntoPrefix + WriteTree) with subtreeCommit as a second parent.
func Add(ctx context.Context, svc Service, dir string, headCommit, subtreeCommit CommitId, baseTree TreeId, meta Metadata, summary string) (CommitId, error) {
	message := fmt.Sprintf("Add '%s/' from commit '%s'\n\n%s", dir, subtreeCommit, summary)
	final := trailers.FormatAddOrRejoin(message, dir, string(headCommit), string(subtreeCommit))
	return svc.CreateCommit(ctx, baseTree, []CommitId{headCommit, subtreeCommit}, meta, final)
}

// MergeCommit synthesizes a plain two-parent commit with no envelope and
// no git-subtree-* trailers: the shape `add --squash` uses for its wrapper
// commit, since the split trailer already lives on the inner squash commit
// produced by Squash and the wrapper establishes no mapping of its own.
func MergeCommit(ctx context.Context, svc Service, tree TreeId, parents []CommitId, meta Metadata, message string) (CommitId, error) {
	return svc.CreateCommit(ctx, tree, parents, meta, message)
}

// Rejoin implements the rejoin shape in section 4.9: emitted at the end of
// split --rejoin to record the new mapping into the mainline. Shape is
// identical to Add.
func Rejoin(ctx context.Context, svc Service, dir string, headCommit, splitCommit CommitId, meta Metadata) (CommitId, error) {
	tree, err := svc.RootTree(ctx, headCommit)
	if err != nil {
		return "", err
	}
	message := fmt.Sprintf("Split '%s/' into commit '%s'", dir, splitCommit)
	final := trailers.FormatAddOrRejoin(message, dir, string(headCommit), string(splitCommit))
	return svc.CreateCommit(ctx, tree, []CommitId{headCommit, splitCommit}, meta, final)
}
