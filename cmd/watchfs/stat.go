package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

func statMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one path is required")
	}

	ctx := context.Background()
	entry, stat, err := core.Resolve(ctx, arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to resolve path")
	}

	kind := "file"
	if entry.IsDirectory() {
		kind = "directory"
	}
	fmt.Printf("path:      %s\n", entry.FullPath())
	fmt.Printf("kind:      %s\n", kind)
	fmt.Printf("size:      %d\n", stat.Size)
	fmt.Printf("modTime:   %s\n", stat.ModTime)
	fmt.Printf("realPath:  %s\n", stat.RealPath)
	return nil
}

var statCommand = &cobra.Command{
	Use:   "stat <path>",
	Short: "Resolve a path and print its stat snapshot",
	Run:   appcmd.Mainify(statMain),
}
