package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

var saveConfiguration struct {
	title        string
	initial      string
	proposedName string
}

func saveMain(command *cobra.Command, arguments []string) error {
	chosen, err := core.ShowSaveDialog(
		context.Background(),
		saveConfiguration.title,
		saveConfiguration.initial,
		saveConfiguration.proposedName,
	)
	if err != nil {
		return errors.Wrap(err, "save dialog failed")
	}
	if chosen == "" {
		fmt.Println("(cancelled)")
		return nil
	}
	fmt.Println(chosen)
	return nil
}

var saveCommand = &cobra.Command{
	Use:   "save",
	Short: "Show the backend's save dialog",
	Run:   appcmd.Mainify(saveMain),
}

func init() {
	flags := saveCommand.Flags()
	flags.StringVar(&saveConfiguration.title, "title", "Save", "Dialog title")
	flags.StringVar(&saveConfiguration.initial, "initial", "", "Initial directory")
	flags.StringVar(&saveConfiguration.proposedName, "name", "", "Proposed file name")
}
