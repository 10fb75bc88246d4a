package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/engine"
	"github.com/subtreecli/subtree/cmd/subtree/cli/logging"
	"github.com/subtreecli/subtree/cmd/subtree/cli/validation"
)

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull --prefix <dir> <repository> [ref]",
		Short: "Fetch <repository> and merge its history into --prefix",
		Args:  cobra.RangeArgs(1, 2),
		Long: "pull fetches <repository>'s [ref] (default main) and merges it into the " +
			"existing subdirectory at --prefix; equivalent to fetching and then running merge.",
		RunE: runPull,
	}
}

func runPull(cmd *cobra.Command, args []string) error {
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

	head, err := rt.svc.Resolve(ctx, "HEAD")
	if err != nil {
		return &UserError{Msg: "failed to resolve HEAD"}
	}
	existing, err := rt.svc.Entry(ctx, head, prefix)
	if err != nil || existing.Kind != engine.EntryTree {
		return &RepositoryStateError{Msg: fmt.Sprintf("prefix %q was never added; run add first", prefix)}
	}

	refspec := fmt.Sprintf("refs/heads/%s:refs/subtree/fetch/%s", branch, branch)
	logging.Info(ctx, "fetching remote for pull", "remote", remote, "branch", branch)
	if err := rt.svc.Fetch(ctx, remote, refspec); err != nil {
		return fmt.Errorf("fetching %s %s: %w", remote, branch, err)
	}
	incoming, err := rt.svc.Resolve(ctx, "refs/subtree/fetch/"+branch)
	if err != nil {
		return fmt.Errorf("resolving fetched branch: %w", err)
	}

	if squash {
		ok, err := confirm("--squash discards the individual author identities of every incoming commit; continue?", rt.yes)
		if err != nil {
			return err
		}
		if !ok {
			return &UserError{Msg: "refusing to squash without confirmation", Token: "--squash"}
		}
		summary := fmt.Sprintf("Squashed %s changes prior to merging into '%s/'", remote, prefix)
		incoming, err = engine.Squash(ctx, rt.svc, prefix, "", incoming, engine.SquashSummary(summary))
		if err != nil {
			return fmt.Errorf("squashing %s: %w", remote, err)
		}
	}

	if err := rt.svc.Merge(ctx, incoming, "subtree="+prefix); err != nil {
		return fmt.Errorf("merging %s into %s: %w", incoming, prefix, err)
	}

	tree, err := rt.svc.WriteTree(ctx)
	if err != nil {
		return fmt.Errorf("writing merged tree: %w", err)
	}
	meta, err := rt.svc.Metadata(ctx, head)
	if err != nil {
		return err
	}
	summary := message
	if summary == "" {
		summary = fmt.Sprintf("Merge commit '%s' into '%s'", incoming, prefix)
	}
	pullCommit, err := engine.Add(ctx, rt.svc, prefix, head, incoming, tree, meta, summary)
	if err != nil {
		return fmt.Errorf("synthesizing pull commit: %w", err)
	}
	if err := rt.svc.UpdateRef(ctx, "HEAD", pullCommit); err != nil {
		return fmt.Errorf("updating HEAD: %w", err)
	}

	fmt.Println(pullCommit)
	return nil
}
