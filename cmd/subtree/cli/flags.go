package cli

import (
	"github.com/spf13/pflag"
)

// splitGroupFlags are the flags section 6.2 reserves for split; every
// other command rejects them unless it allows --rejoin specifically.
var splitGroupFlags = []string{"annotate", "branch", "ignore-joins", "onto", "notree", "remember", "rejoin"}

// addMergeGroupFlags are reserved for add and merge.
var addMergeGroupFlags = []string{"squash", "message"}

// rejectFlagGroup fails with a UserError naming the first flag from group
// that was explicitly set on cmd but does not belong to it.
func rejectFlagGroup(flags *pflag.FlagSet, group []string) error {
	for _, name := range group {
		f := flags.Lookup(name)
		if f != nil && f.Changed {
			return &UserError{Msg: "flag not valid for this command", Token: "--" + name}
		}
	}
	return nil
}

// validateSplitCommandFlags rejects add/merge-group flags on split.
func validateSplitCommandFlags(flags *pflag.FlagSet) error {
	return rejectFlagGroup(flags, addMergeGroupFlags)
}

// validateNonSplitCommandFlags rejects split-group flags on a command that
// isn't split. allowRejoin exists for callers that also accept --rejoin.
func validateNonSplitCommandFlags(flags *pflag.FlagSet, allowRejoin bool) error {
	for _, name := range splitGroupFlags {
		if allowRejoin && name == "rejoin" {
			continue
		}
		if f := flags.Lookup(name); f != nil && f.Changed {
			return &UserError{Msg: "flag not valid for this command", Token: "--" + name}
		}
	}
	return nil
}

func requirePrefix(prefix string) error {
	if prefix == "" {
		return &UserError{Msg: "--prefix is required"}
	}
	return nil
}
