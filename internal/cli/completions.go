package cli

import (
	"github.com/spf13/cobra"
)

// completeSinceWindows returns common time windows for --since flags.
func completeSinceWindows(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"24h\tLast day",
		"7d\tLast week",
		"30d\tLast month",
		"90d\tLast quarter",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeScriptFiles limits `nexus run` arguments to script files.
func completeScriptFiles(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"nexus", "txt"}, cobra.ShellCompDirectiveFilterFileExt
}
