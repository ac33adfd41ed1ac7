// Command saveforge is the trigger-and-sink CLI for the backup engine: one
// subcommand per operation, invoked manually or from a scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/saveforge/backupcore/internal/appconfig"
	"github.com/saveforge/backupcore/internal/engine"
)

var eng *engine.Engine

var catalogPathFlag string

// loadEngine bootstraps settings/index and wires the engine. It is called
// from each subcommand's RunE rather than a PersistentPreRunE, since
// commands like `version` (none currently) could otherwise be forced to
// pay the bootstrap cost too; keeping it explicit mirrors the rest of the
// corpus's "fail where you need the resource" style.
func loadEngine() error {
	if eng != nil {
		return nil
	}
	boot, err := appconfig.Load()
	if err != nil {
		return errors.Wrap(err, "unable to load settings")
	}
	metadata, registry, steamLibraries := engine.DefaultAdapters()
	eng = engine.New(boot, catalogPathFlag, metadata, registry, steamLibraries)
	return nil
}

var rootCommand = &cobra.Command{
	Use:   "saveforge",
	Short: "Backs up and restores PC game save data",
}

func init() {
	rootCommand.PersistentFlags().StringVar(&catalogPathFlag, "catalog", "", "Path to the save-location catalog JSON file")

	rootCommand.AddCommand(
		listCommand,
		detailCommand,
		addCommand,
		detectCommand,
		locationCommand,
		backupCommand,
		restoreCommand,
		verifyCommand,
		deleteCommand,
		scanCommand,
		settingsCommand,
	)
}

func fatal(err error) {
	fmt.Fprintln(color.Output, color.RedString("error:"), err)
	os.Exit(1)
}

func main() {
	rootCommand.SilenceErrors = true
	rootCommand.SilenceUsage = true
	if err := rootCommand.Execute(); err != nil {
		fatal(err)
	}
}
