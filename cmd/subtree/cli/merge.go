package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/engine"
	"github.com/subtreecli/subtree/cmd/subtree/cli/logging"
	"github.com/subtreecli/subtree/cmd/subtree/cli/validation"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge --prefix <dir> <commit>",
		Short: "Merge further subtree history into an existing --prefix",
		Args:  cobra.ExactArgs(1),
		Long: "merge folds <commit> (typically another split's output, or a fetched remote " +
			"tip) into the existing subdirectory at --prefix with git's subtree merge " +
			"strategy, so paths are reconciled against the prefix rather than the repository root.",
		RunE: runMerge,
	}
}

func runMerge(cmd *cobra.Command, args []string) error {
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
	if err := validation.ValidateCommitish(args[0]); err != nil {
		return &UserError{Msg: err.Error()}
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

	incoming, err := rt.svc.Resolve(ctx, args[0])
	if err != nil {
		return &UserError{Msg: "failed to resolve commit", Token: args[0]}
	}

	if squash {
		ok, err := confirm("--squash discards the individual author identities of every incoming commit; continue?", rt.yes)
		if err != nil {
			return err
		}
		if !ok {
			return &UserError{Msg: "refusing to squash without confirmation", Token: "--squash"}
		}
		summary := fmt.Sprintf("Squashed %s changes prior to merging into '%s/'", incoming, prefix)
		incoming, err = engine.Squash(ctx, rt.svc, prefix, "", incoming, engine.SquashSummary(summary))
		if err != nil {
			return fmt.Errorf("squashing %s: %w", args[0], err)
		}
	}

	logging.Info(ctx, "merging subtree commit", "prefix", prefix, "commit", string(incoming))
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
	mergeCommit, err := engine.Add(ctx, rt.svc, prefix, head, incoming, tree, meta, summary)
	if err != nil {
		return fmt.Errorf("synthesizing merge commit: %w", err)
	}
	if err := rt.svc.UpdateRef(ctx, "HEAD", mergeCommit); err != nil {
		return fmt.Errorf("updating HEAD: %w", err)
	}

	fmt.Println(mergeCommit)
	return nil
}
