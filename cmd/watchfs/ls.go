package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

func lsMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one directory path is required")
	}

	ctx := context.Background()
	dir, err := core.GetDirectoryForPath(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to resolve directory")
	}

	children, err := dir.GetContents(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to list directory")
	}

	for _, child := range children {
		kind := "file"
		if child.IsDirectory() {
			kind = "dir"
		}
		fmt.Printf("%-5s %s\n", kind, child.FullPath())
	}
	return nil
}

var lsCommand = &cobra.Command{
	Use:   "ls <path>",
	Short: "List a directory's contents",
	Run:   appcmd.Mainify(lsMain),
}
