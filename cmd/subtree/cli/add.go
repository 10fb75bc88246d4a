package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/config"
	"github.com/subtreecli/subtree/cmd/subtree/cli/engine"
	"github.com/subtreecli/subtree/cmd/subtree/cli/logging"
	"github.com/subtreecli/subtree/cmd/subtree/cli/validation"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add --prefix <dir> <repository> [ref]",
		Short: "Add a remote repository's history into --prefix",
		Args:  cobra.RangeArgs(1, 2),
		Long: "add fetches <repository>'s [ref] (default main) and merges it into a new " +
			"subdirectory at --prefix, recording the mapping in a git-subtree-mainline/" +
			"git-subtree-split trailer so later pull/push runs recognize it.",
		RunE: runAdd,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	prefix, _ := flags.GetString("prefix")
	if err := requirePrefix(prefix); err != nil {
		return err
	}
	if err := validation.ValidatePrefix(prefix); err != nil {
		return &UserError{Msg: err.Error()}
	}
	if err := validateNonSplitCommandFlags(flags, false); err != nil {
		return err
	}

	remote := args[0]
	branch := "main"
	if len(args) > 1 {
		branch = args[1]
	}
	squash, _ := flags.GetBool("squash")
	message, _ := flags.GetString("message")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := rt.context(cmd.Context(), "cli")

	headBefore, err := rt.svc.Resolve(ctx, "HEAD")
	if err != nil {
		return &UserError{Msg: "failed to resolve HEAD"}
	}
	existing, err := rt.svc.Entry(ctx, headBefore, prefix)
	if err == nil && existing.Kind == engine.EntryTree {
		return &RepositoryStateError{Msg: fmt.Sprintf("prefix %q already exists; use merge to bring in further history", prefix)}
	}

	refspec := fmt.Sprintf("refs/heads/%s:refs/subtree/fetch/%s", branch, branch)
	logging.Info(ctx, "fetching remote for add", "remote", remote, "branch", branch)
	if err := rt.svc.Fetch(ctx, remote, refspec); err != nil {
		return fmt.Errorf("fetching %s %s: %w", remote, branch, err)
	}
	subtreeCommit, err := rt.svc.Resolve(ctx, "refs/subtree/fetch/"+branch)
	if err != nil {
		return fmt.Errorf("resolving fetched branch: %w", err)
	}

	head := headBefore

	if squash {
		ok, err := confirm("--squash discards the individual author identities of every incoming commit; continue?", rt.yes)
		if err != nil {
			return err
		}
		if !ok {
			return &UserError{Msg: "refusing to squash without confirmation", Token: "--squash"}
		}
		summary := fmt.Sprintf("Squashed %s history prior to adding to '%s/'", remote, prefix)
		subtreeCommit, err = engine.Squash(ctx, rt.svc, prefix, "", subtreeCommit, engine.SquashSummary(summary))
		if err != nil {
			return fmt.Errorf("squashing %s: %w", remote, err)
		}
	}

	if err := rt.svc.ReadTreeIntoPrefix(ctx, subtreeCommit, prefix); err != nil {
		return fmt.Errorf("staging %s under %s: %w", remote, prefix, err)
	}
	tree, err := rt.svc.WriteTree(ctx)
	if err != nil {
		return fmt.Errorf("writing combined tree: %w", err)
	}

	meta, err := rt.svc.Metadata(ctx, head)
	if err != nil {
		return err
	}
	summary := message
	if summary == "" {
		summary = fmt.Sprintf("Merge commit '%s' as '%s'", subtreeCommit, prefix)
	}

	var addCommit engine.CommitId
	if squash {
		// The squash commit already carries the dir/split trailers; the
		// wrapper here is a plain merge commit with no envelope of its own.
		addCommit, err = engine.MergeCommit(ctx, rt.svc, tree, []engine.CommitId{head, subtreeCommit}, meta, summary)
	} else {
		addCommit, err = engine.Add(ctx, rt.svc, prefix, head, subtreeCommit, tree, meta, summary)
	}
	if err != nil {
		return fmt.Errorf("synthesizing add commit: %w", err)
	}
	if err := rt.svc.UpdateRef(ctx, "HEAD", addCommit); err != nil {
		return fmt.Errorf("updating HEAD: %w", err)
	}

	fmt.Println(addCommit)
	rt.cfg.RememberPrefixDefaults(prefix, config.PrefixDefaults{Remote: remote, Branch: branch, Squash: squash})
	_ = config.Save(rt.cfg)
	return nil
}
