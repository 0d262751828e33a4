package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	appcmd "github.com/watchfs/watchfs/cmd"
)

var openConfiguration struct {
	multiple    bool
	directories bool
	title       string
	initial     string
	fileTypes   string
}

func openMain(command *cobra.Command, arguments []string) error {
	var fileTypes []string
	if openConfiguration.fileTypes != "" {
		fileTypes = strings.Split(openConfiguration.fileTypes, ",")
	}

	selection, err := core.ShowOpenDialog(
		context.Background(),
		openConfiguration.multiple,
		openConfiguration.directories,
		openConfiguration.title,
		openConfiguration.initial,
		fileTypes,
	)
	if err != nil {
		return errors.Wrap(err, "open dialog failed")
	}
	if len(selection) == 0 {
		fmt.Println("(cancelled)")
		return nil
	}
	for _, path := range selection {
		fmt.Println(path)
	}
	return nil
}

var openCommand = &cobra.Command{
	Use:   "open",
	Short: "Show the backend's open dialog",
	Run:   appcmd.Mainify(openMain),
}

func init() {
	flags := openCommand.Flags()
	flags.BoolVar(&openConfiguration.multiple, "multiple", false, "Allow selecting multiple entries")
	flags.BoolVar(&openConfiguration.directories, "directories", false, "Select directories instead of files")
	flags.StringVar(&openConfiguration.title, "title", "Open", "Dialog title")
	flags.StringVar(&openConfiguration.initial, "initial", "", "Initial path")
	flags.StringVar(&openConfiguration.fileTypes, "file-types", "", "Comma-separated list of allowed file extensions")
}
