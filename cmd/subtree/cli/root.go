package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/subtreecli/subtree/cmd/subtree/cli/config"
	"github.com/subtreecli/subtree/cmd/subtree/cli/telemetry"
	"github.com/subtreecli/subtree/cmd/subtree/cli/versioncheck"
)

const gettingStarted = `

Getting Started:
  Run 'subtree split --prefix <dir>' to project a subdirectory's history
  into its own commit graph, or 'subtree add --prefix <dir> --remote <url>
  --branch <ref>' to pull another project's history into a subdirectory.
`

// Version information (can be set at build time).
var (
	Version = "dev"
	Commit  = "unknown"
)

// NewRootCmd builds the subtree root command and wires every subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtree",
		Short: "Project a repository subdirectory into its own commit history, or merge one back in",
		Long:  "subtree splits, merges, pulls, and pushes a subdirectory's history as an independent commit graph." + gettingStarted,
		// Let main.go handle error printing to avoid duplication.
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			versioncheck.CheckAndNotify(cmd, Version)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			var telemetryEnabled *bool
			if cfg, err := config.Load(); err == nil {
				telemetryEnabled = cfg.Telemetry
			}
			if noTelemetry, _ := cmd.Flags().GetBool("no-telemetry"); noTelemetry {
				disabled := false
				telemetryEnabled = &disabled
			}

			telemetryClient := telemetry.NewClient(Version, telemetryEnabled)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("quiet", false, "suppress progress output")
	cmd.PersistentFlags().Bool("debug", false, "panic on internal invariant violations instead of returning an error")
	cmd.PersistentFlags().Bool("yes", false, "skip interactive confirmations")
	cmd.PersistentFlags().Bool("no-telemetry", false, "disable telemetry for this invocation")

	// --prefix is shared by every driver command. The remaining flags here
	// are registered on every command so flags.go can reject an
	// out-of-group one with an actionable message instead of pflag's
	// generic "unknown flag" error.
	cmd.PersistentFlags().String("prefix", "", "subdirectory the command acts on (required)")

	// Split-group flags (section 6.2): valid only on split, except
	// --rejoin which pull also honors.
	cmd.PersistentFlags().String("annotate", "", "prefix added to every synthesized commit message")
	cmd.PersistentFlags().String("branch", "", "update this ref to the synthesized split commit")
	cmd.PersistentFlags().Bool("ignore-joins", false, "ignore prior add/merge/rejoin markers on the mainline")
	cmd.PersistentFlags().StringArray("onto", nil, "seed the cache as if this mainline commit already split to itself")
	cmd.PersistentFlags().StringArray("notree", nil, "seed the cache as if this mainline commit never contained --prefix")
	cmd.PersistentFlags().Bool("rejoin", false, "record the split result back into the mainline as a merge commit")
	cmd.PersistentFlags().StringArray("remember", nil, "assert BEFORE:AFTER, reconciled before traversal begins")

	// Add/merge-group flags: valid only on add, merge, and pull.
	cmd.PersistentFlags().Bool("squash", false, "collapse the incoming history into a single commit")
	cmd.PersistentFlags().String("message", "", "commit message for the synthesized commit")

	// push-only: decides what the pre-push secret scan does with a finding.
	cmd.PersistentFlags().String("on-secret", "warn", "what to do when the pre-push secret scan finds something: warn or abort")

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newPullCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newVersionCmd())

	cmd.SetHelpCommand(NewHelpCmd(cmd))

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("subtree %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", goruntime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
		},
	}
}
