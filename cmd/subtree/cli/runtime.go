package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/config"
	"github.com/subtreecli/subtree/cmd/subtree/cli/gitservice"
	"github.com/subtreecli/subtree/cmd/subtree/cli/logging"
	"github.com/subtreecli/subtree/cmd/subtree/cli/paths"
)

// runtime bundles the per-invocation state every driver command needs:
// the opened repository, the loaded configuration, and the run id its log
// lines are tagged with.
type runtime struct {
	svc   *gitservice.Service
	cfg   *config.Config
	runID string
	quiet bool
	yes   bool
}

// newRuntime resolves the repository root, opens it, loads configuration,
// generates a run id, and wires logging for the command about to run. It
// is the one place every driver command shares, the way the teacher's
// commands all route through a common repository-opening helper.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	root, err := paths.RepoRoot()
	if err != nil {
		return nil, &EnvironmentError{Msg: "not inside a git working tree", Err: err}
	}

	svc, err := gitservice.Open(root)
	if err != nil {
		return nil, &EnvironmentError{Msg: "failed to open git repository", Err: err}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	runID := uuid.NewString()
	logging.SetLogLevelGetter(func() string { return cfg.LogLevel })
	if err := logging.Init(runID); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	yes, _ := cmd.Flags().GetBool("yes")

	return &runtime{svc: svc, cfg: cfg, runID: runID, quiet: quiet, yes: yes}, nil
}

// context returns ctx annotated with this run's id and the named
// component, for the logging package's context helpers.
func (r *runtime) context(ctx context.Context, component string) context.Context {
	ctx = logging.WithRun(ctx, r.runID)
	return logging.WithComponent(ctx, component)
}

// progress returns an engine.Options.Progress callback that logs to the
// run's log file and, unless --quiet, prints a one-line status to stderr.
func (r *runtime) progress(ctx context.Context) func(phase string, n int) {
	return func(phase string, n int) {
		logging.Debug(ctx, "progress", "phase", phase, "n", n)
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "%s: %d\r", phase, n)
		}
	}
}
