package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/config"
	"github.com/subtreecli/subtree/cmd/subtree/cli/engine"
	"github.com/subtreecli/subtree/cmd/subtree/cli/logging"
	"github.com/subtreecli/subtree/cmd/subtree/cli/validation"
)

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Project --prefix's history into its own commit graph",
		Long: "split walks the commit DAG from HEAD, classifies each commit by whether it " +
			"touches --prefix, and synthesizes a new commit graph containing only that " +
			"subdirectory's history.",
		RunE: runSplit,
	}
}

func runSplit(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	prefix, _ := flags.GetString("prefix")
	if err := requirePrefix(prefix); err != nil {
		return err
	}
	if err := validation.ValidatePrefix(prefix); err != nil {
		return &UserError{Msg: err.Error()}
	}
	if err := validateSplitCommandFlags(flags); err != nil {
		return err
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := rt.context(cmd.Context(), "cli")

	branch, _ := flags.GetString("branch")
	annotate, _ := flags.GetString("annotate")
	ignoreJoins, _ := flags.GetBool("ignore-joins")
	onto, _ := flags.GetStringArray("onto")
	notree, _ := flags.GetStringArray("notree")
	rejoin, _ := flags.GetBool("rejoin")
	remember, _ := flags.GetStringArray("remember")

	defaults := rt.cfg.PrefixDefaultsFor(prefix)
	if !flags.Changed("ignore-joins") {
		ignoreJoins = defaults.IgnoreJoins
	}

	tip, err := rt.svc.Resolve(ctx, "HEAD")
	if err != nil {
		return &UserError{Msg: "failed to resolve split tip", Token: "HEAD"}
	}

	opts := engine.Options{
		Dir:         prefix,
		IgnoreJoins: ignoreJoins,
		Annotate:    annotate,
		Progress:    rt.progress(ctx),
	}
	for _, c := range onto {
		if err := validation.ValidateCommitish(c); err != nil {
			return &UserError{Msg: err.Error()}
		}
		id, err := rt.svc.Resolve(ctx, c)
		if err != nil {
			return &UserError{Msg: "failed to resolve --onto commit", Token: c}
		}
		opts.Onto = append(opts.Onto, id)
	}
	for _, c := range notree {
		if err := validation.ValidateCommitish(c); err != nil {
			return &UserError{Msg: err.Error()}
		}
		id, err := rt.svc.Resolve(ctx, c)
		if err != nil {
			return &UserError{Msg: "failed to resolve --notree commit", Token: c}
		}
		opts.NoTree = append(opts.NoTree, id)
	}
	for _, r := range remember {
		if err := validation.ValidateRememberPair(r); err != nil {
			return &UserError{Msg: err.Error()}
		}
		pair, err := engine.ParseRememberPair(r)
		if err != nil {
			return &UserError{Msg: err.Error(), Token: r}
		}
		opts.Remember = append(opts.Remember, pair)
	}

	eng := engine.New(rt.svc, opts)
	logging.Info(ctx, "split started", "prefix", prefix, "tip", string(tip))

	split, err := eng.Split(ctx, tip)
	if err != nil {
		logging.Error(ctx, "split failed", "error", err.Error())
		return err
	}
	logging.Info(ctx, "split finished", "result", string(split))

	if rejoin {
		if err := doRejoin(ctx, rt, prefix, tip, split); err != nil {
			return err
		}
	}

	if branch != "" {
		if exists, _ := rt.svc.Exists(ctx, branch); exists {
			branchTip, err := rt.svc.Resolve(ctx, branch)
			if err != nil {
				return &UserError{Msg: "failed to resolve --branch", Token: branch}
			}
			isAncestor, err := rt.svc.IsAncestor(ctx, branchTip, tip)
			if err != nil {
				return err
			}
			if !isAncestor {
				return &RepositoryStateError{Msg: fmt.Sprintf("Branch '%s' is not an ancestor of commit '%s'.", branch, tip)}
			}
			ok, err := confirm(fmt.Sprintf("Branch %q already exists; move it to the new split result?", branch), rt.yes)
			if err != nil {
				return err
			}
			if !ok {
				return &UserError{Msg: "refusing to move existing branch without confirmation", Token: "--branch=" + branch}
			}
		}
		if err := rt.svc.UpdateRef(ctx, branch, split); err != nil {
			return fmt.Errorf("updating branch %s: %w", branch, err)
		}
	}

	fmt.Println(split)
	rt.cfg.RememberPrefixDefaults(prefix, config.PrefixDefaults{
		Squash:      defaults.Squash,
		IgnoreJoins: ignoreJoins,
	})
	_ = config.Save(rt.cfg)
	return nil
}

// doRejoin implements --rejoin: synthesize the section 4.9 rejoin commit
// recording split as HEAD's new mapping, and move HEAD onto it.
func doRejoin(ctx context.Context, rt *runtime, prefix string, tip, split engine.CommitId) error {
	meta, err := rt.svc.Metadata(ctx, tip)
	if err != nil {
		return err
	}
	rejoinCommit, err := engine.Rejoin(ctx, rt.svc, prefix, tip, split, meta)
	if err != nil {
		return fmt.Errorf("synthesizing rejoin commit: %w", err)
	}
	return rt.svc.UpdateRef(ctx, "HEAD", rejoinCommit)
}
