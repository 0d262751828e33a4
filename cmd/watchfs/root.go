// Command watchfs is a small CLI that exercises the vfs façade end to end
// against either the local-disk backend or the in-memory backend.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/watchfs/watchfs/cmd/watchfs/config"
	"github.com/watchfs/watchfs/pkg/logging"
	"github.com/watchfs/watchfs/pkg/vfs"
	"github.com/watchfs/watchfs/pkg/vfs/backend"
	"github.com/watchfs/watchfs/pkg/vfs/backend/local"
	"github.com/watchfs/watchfs/pkg/vfs/backend/memory"
	"github.com/watchfs/watchfs/pkg/watchfs"
)

// core is the façade instance shared by every subcommand. It's initialized
// once in rootCommand's PersistentPreRunE and torn down in
// PersistentPostRun.
var core *vfs.Core

// cfg is the parsed preferences file, loaded once at startup.
var cfg *config.Config

var rootConfiguration struct {
	help    bool
	version bool
	memory  bool
	debug   bool
}

func rootPersistentPreRun(command *cobra.Command, arguments []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if rootConfiguration.debug {
		watchfs.DebugEnabled = true
	} else if cfg.Level() >= logging.LevelDebug {
		watchfs.DebugEnabled = true
	}

	logger := logging.RootLogger.Sublogger("watchfs")

	var be backend.Backend
	if rootConfiguration.memory {
		be = memory.New()
	} else {
		localBackend, err := local.New(logger.Sublogger("local"))
		if err != nil {
			return errors.Wrap(err, "unable to create local backend")
		}
		be = localBackend
	}

	core = vfs.New(logger)
	if err := core.Init(be); err != nil {
		return errors.Wrap(err, "unable to initialize core")
	}
	return nil
}

func rootPersistentPostRun(command *cobra.Command, arguments []string) {
	if core != nil {
		core.Close()
	}
}

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(watchfs.Version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:               "watchfs",
	Short:             "watchfs is a demo CLI for the vfs façade",
	Run:               rootMain,
	PersistentPreRunE: rootPersistentPreRun,
	PersistentPostRun: rootPersistentPostRun,
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.BoolVar(&rootConfiguration.memory, "memory", false, "Use the in-memory backend instead of the local-disk backend")
	flags.BoolVar(&rootConfiguration.debug, "debug", false, "Enable debug logging")

	localFlags := rootCommand.Flags()
	localFlags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	localFlags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		lsCommand,
		statCommand,
		watchCommand,
		openCommand,
		saveCommand,
		debugCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
