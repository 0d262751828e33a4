package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

func watchMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return pkgerrors.New("exactly one directory path is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dir, err := core.GetDirectoryForPath(arguments[0])
	if err != nil {
		return pkgerrors.Wrap(err, "unable to resolve directory")
	}

	filter := cfg.Filter()
	if err := core.Watch(ctx, dir, filter); err != nil {
		return pkgerrors.Wrap(err, "unable to watch directory")
	}
	defer core.Unwatch(context.Background(), dir)

	fmt.Printf("watching %s (press ctrl-c to stop)\n", dir.FullPath())

	var index uint64
	for {
		next, err := core.WaitForChange(ctx, index)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("stopped")
				return nil
			}
			return pkgerrors.Wrap(err, "wait for change failed")
		}
		index = next
		fmt.Println("change observed")
	}
}

var watchCommand = &cobra.Command{
	Use:   "watch <path>",
	Short: "Watch a directory and print a line for each observed change",
	Run:   appcmd.Mainify(watchMain),
}
