// Package gitservice implements engine.Service against a real repository
// using go-git. It is the only package in this module that talks to the
// object graph directly; everything split/merge/pull/push-shaped goes
// through the engine.Service interface so the engine itself stays free of
// any concrete version-control dependency.
package gitservice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/subtreecli/subtree/cmd/subtree/cli/engine"
)

// shortHashLen matches the fixed-width abbreviation used throughout this
// codebase for displaying commit ids to a human.
const shortHashLen = 7

// errStop aborts an in-progress commit-log walk once the answer is known.
var errStop = errors.New("stop iteration")

// Service wraps a go-git repository to satisfy engine.Service.
type Service struct {
	repo *git.Repository
	// dir is the working-tree root, needed for the one operation (Merge)
	// this package shells out for rather than reimplementing against
	// go-git's plumbing.
	dir string
}

// Open opens the git repository rooted at dir, following linked worktrees.
func Open(dir string) (*Service, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return &Service{repo: repo, dir: dir}, nil
}

func (s *Service) commit(id engine.CommitId) (*object.Commit, error) {
	c, err := s.repo.CommitObject(plumbing.NewHash(string(id)))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", id, err)
	}
	return c, nil
}

// Parents returns c's parents in declaration order.
func (s *Service) Parents(_ context.Context, c engine.CommitId) ([]engine.CommitId, error) {
	commit, err := s.commit(c)
	if err != nil {
		return nil, err
	}
	parents := make([]engine.CommitId, len(commit.ParentHashes))
	for i, h := range commit.ParentHashes {
		parents[i] = engine.CommitId(h.String())
	}
	return parents, nil
}

// RootTree returns the root tree of c.
func (s *Service) RootTree(_ context.Context, c engine.CommitId) (engine.TreeId, error) {
	commit, err := s.commit(c)
	if err != nil {
		return "", err
	}
	return engine.TreeId(commit.TreeHash.String()), nil
}

// Entry resolves path inside c's tree.
func (s *Service) Entry(_ context.Context, c engine.CommitId, path string) (engine.Entry, error) {
	commit, err := s.commit(c)
	if err != nil {
		return engine.Entry{}, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return engine.Entry{}, fmt.Errorf("reading tree for %s: %w", c, err)
	}

	entry, err := tree.FindEntry(path)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) {
			return engine.Entry{Kind: engine.EntryNone}, nil
		}
		return engine.Entry{}, fmt.Errorf("looking up %s in %s: %w", path, c, err)
	}

	switch {
	case entry.Mode == filemode.Dir:
		return engine.Entry{Kind: engine.EntryTree, Tree: engine.TreeId(entry.Hash.String())}, nil
	case entry.Mode == filemode.Submodule:
		return engine.Entry{Kind: engine.EntrySubmodule}, nil
	default:
		return engine.Entry{Kind: engine.EntryOther}, nil
	}
}

// Resolve turns a ref into a CommitId.
func (s *Service) Resolve(_ context.Context, ref string) (engine.CommitId, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", ref, err)
	}
	return engine.CommitId(h.String()), nil
}

// Exists reports whether ref resolves to anything.
func (s *Service) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.Resolve(ctx, ref)
	if err != nil {
		return false, nil //nolint:nilerr // non-existence is the expected negative case, not a failure
	}
	return true, nil
}

// Message returns c's full commit message body.
func (s *Service) Message(_ context.Context, c engine.CommitId) (string, error) {
	commit, err := s.commit(c)
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

// Metadata returns c's author/committer identity and timestamps.
func (s *Service) Metadata(_ context.Context, c engine.CommitId) (engine.Metadata, error) {
	commit, err := s.commit(c)
	if err != nil {
		return engine.Metadata{}, err
	}
	return engine.Metadata{
		AuthorName:     commit.Author.Name,
		AuthorEmail:    commit.Author.Email,
		AuthorDate:     formatSignatureDate(commit.Author),
		CommitterName:  commit.Committer.Name,
		CommitterEmail: commit.Committer.Email,
		CommitterDate:  formatSignatureDate(commit.Committer),
	}, nil
}

func formatSignatureDate(sig object.Signature) string {
	return sig.When.Format(time.RFC3339)
}

// ShortHash returns a fixed-width abbreviation of c, for display only.
func (s *Service) ShortHash(_ context.Context, c engine.CommitId) (string, error) {
	id := string(c)
	if len(id) <= shortHashLen {
		return id, nil
	}
	return id[:shortHashLen], nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (s *Service) IsAncestor(_ context.Context, ancestor, descendant engine.CommitId) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	target := plumbing.NewHash(string(descendant))
	want := plumbing.NewHash(string(ancestor))

	iter, err := s.repo.Log(&git.LogOptions{From: target})
	if err != nil {
		return false, fmt.Errorf("walking history from %s: %w", descendant, err)
	}
	defer iter.Close()

	found := false
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == want {
			found = true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return false, fmt.Errorf("walking history from %s: %w", descendant, err)
	}
	return found, nil
}

// SelectIndependentTips drops every commit in ids that is an ancestor of
// another commit in ids.
func (s *Service) SelectIndependentTips(ctx context.Context, ids []engine.CommitId) ([]engine.CommitId, error) {
	var tips []engine.CommitId
	for i, candidate := range ids {
		isAncestorOfAnother := false
		for j, other := range ids {
			if i == j {
				continue
			}
			ok, err := s.IsAncestor(ctx, candidate, other)
			if err != nil {
				return nil, err
			}
			if ok {
				isAncestorOfAnother = true
				break
			}
		}
		if !isAncestorOfAnother {
			tips = append(tips, candidate)
		}
	}
	return tips, nil
}

// CountBetween counts commits reachable from include but not from exclude.
func (s *Service) CountBetween(_ context.Context, exclude, include engine.CommitId) (int, error) {
	iter, err := s.repo.Log(&git.LogOptions{From: plumbing.NewHash(string(include))})
	if err != nil {
		return 0, fmt.Errorf("walking history from %s: %w", include, err)
	}
	defer iter.Close()

	boundary := plumbing.NewHash(string(exclude))
	var boundaryAncestors map[plumbing.Hash]struct{}
	if exclude != "" {
		boundaryAncestors, err = s.ancestorSet(boundary)
		if err != nil {
			return 0, err
		}
	}

	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if _, excluded := boundaryAncestors[c.Hash]; excluded {
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting commits from %s: %w", include, err)
	}
	return count, nil
}

func (s *Service) ancestorSet(from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := s.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", from, err)
	}
	defer iter.Close()

	set := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		set[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", from, err)
	}
	return set, nil
}

// CreateCommit synthesizes and persists a new commit object.
func (s *Service) CreateCommit(_ context.Context, tree engine.TreeId, parents []engine.CommitId, meta engine.Metadata, message string) (engine.CommitId, error) {
	author, err := signatureFrom(meta.AuthorName, meta.AuthorEmail, meta.AuthorDate)
	if err != nil {
		return "", fmt.Errorf("parsing author date: %w", err)
	}
	committer, err := signatureFrom(meta.CommitterName, meta.CommitterEmail, meta.CommitterDate)
	if err != nil {
		return "", fmt.Errorf("parsing committer date: %w", err)
	}

	commit := &object.Commit{
		TreeHash:  plumbing.NewHash(string(tree)),
		Author:    author,
		Committer: committer,
		Message:   message,
	}
	for _, p := range parents {
		commit.ParentHashes = append(commit.ParentHashes, plumbing.NewHash(string(p)))
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", fmt.Errorf("encoding commit: %w", err)
	}

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}
	return engine.CommitId(hash.String()), nil
}

func signatureFrom(name, email, date string) (object.Signature, error) {
	when := time.Now()
	if date != "" {
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return object.Signature{}, err
		}
		when = parsed
	}
	return object.Signature{Name: name, Email: email, When: when}, nil
}

// UpdateRef points name at c, creating it if necessary.
func (s *Service) UpdateRef(_ context.Context, name string, c engine.CommitId) error {
	ref := plumbing.NewHashReference(refNameFor(name), plumbing.NewHash(string(c)))
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("updating ref %s: %w", name, err)
	}
	return nil
}

func refNameFor(name string) plumbing.ReferenceName {
	if strings.HasPrefix(name, "refs/") {
		return plumbing.ReferenceName(name)
	}
	return plumbing.NewBranchReferenceName(name)
}

// Merge merges c into the current HEAD without committing. go-git has no
// plumbing equivalent of git merge's tree-level conflict resolution (let
// alone the -X subtree strategy option), so this is the one operation in
// the module that shells out to the git binary.
func (s *Service) Merge(ctx context.Context, c engine.CommitId, strategyOption string) error {
	args := []string{"merge", "--no-commit", "--no-ff"}
	if strategyOption != "" {
		args = append(args, "--strategy", "recursive", "--strategy-option", strategyOption)
	}
	args = append(args, string(c))

	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // args are built from validated internal values
	cmd.Dir = s.dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git merge failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Fetch retrieves refspec from repo.
func (s *Service) Fetch(ctx context.Context, repo, refspec string) error {
	err := s.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RemoteURL:  repo,
		RefSpecs:   []config.RefSpec{config.RefSpec(refspec)},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching %s from %s: %w", refspec, repo, err)
	}
	return nil
}

// Push sends refspec to repo.
func (s *Service) Push(ctx context.Context, repo, refspec string) error {
	err := s.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RemoteURL:  repo,
		RefSpecs:   []config.RefSpec{config.RefSpec(refspec)},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing %s to %s: %w", refspec, repo, err)
	}
	return nil
}

// ReadTreeIntoPrefix stages c's tree under prefix in the working tree and
// index, mirroring git read-tree --prefix. go-git's Worktree type has no
// equivalent of a prefixed read-tree, so this shells out alongside Merge.
func (s *Service) ReadTreeIntoPrefix(ctx context.Context, c engine.CommitId, prefix string) error {
	cmd := exec.CommandContext(ctx, "git", "read-tree", "--prefix="+prefix+"/", "-u", string(c)) //nolint:gosec // args are built from validated internal values
	cmd.Dir = s.dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git read-tree failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// WriteTree writes the current index as a tree object and returns its id.
func (s *Service) WriteTree(ctx context.Context) (engine.TreeId, error) {
	cmd := exec.CommandContext(ctx, "git", "write-tree")
	cmd.Dir = s.dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git write-tree failed: %w", err)
	}
	return engine.TreeId(strings.TrimSpace(string(output))), nil
}
