package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

func debugMain(command *cobra.Command, arguments []string) error {
	stats := core.Stats()
	fmt.Printf("indexed entries:        %d\n", stats.IndexedEntries)
	fmt.Printf("active watched roots:   %d\n", stats.ActiveWatchedRoots)
	fmt.Printf("pending watched roots:  %d\n", stats.PendingWatchedRoots)
	fmt.Printf("pending watch requests: %d\n", stats.PendingWatchRequests)
	return nil
}

var debugCommand = &cobra.Command{
	Use:   "debug",
	Short: "Print a diagnostic snapshot of the façade's internal counters",
	Run:   appcmd.Mainify(debugMain),
}
