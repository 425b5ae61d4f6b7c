package utils

import "github.com/spf13/cobra"

// PropagatePersistentPreRun runs the PersistentPreRun of the closest ancestor that defines one.
func PropagatePersistentPreRun(cmd *cobra.Command, args []string) {
	for parent := cmd.Parent(); parent != nil; parent = parent.Parent() {
		if parent.PersistentPreRun != nil {
			parent.PersistentPreRun(parent, args)
			return
		}
	}
}
