package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saveforge/backupcore/internal/model"
)

var locationCommand = &cobra.Command{
	Use:   "location",
	Short: "Manages a game's save locations",
}

var locationAddConfiguration struct {
	folder bool
}

var locationAddCommand = &cobra.Command{
	Use:   "add <game-id> <path>",
	Short: "Adds a save location to a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		locType := model.LocationFile
		if locationAddConfiguration.folder {
			locType = model.LocationFolder
		}
		loc, err := eng.AddSaveLocation(args[0], args[1], locType, false)
		if err != nil {
			return err
		}
		fmt.Printf("Added location %s (id: %s)\n", loc.Path, loc.ID)
		return nil
	},
}

var locationToggleCommand = &cobra.Command{
	Use:   "toggle <location-id> <on|off>",
	Short: "Enables or disables a save location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		enabled := args[1] == "on"
		return eng.ToggleSaveLocation(args[0], enabled)
	},
}

var locationRemoveCommand = &cobra.Command{
	Use:   "remove <location-id>",
	Short: "Detaches a save location from its game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		return eng.RemoveSaveLocation(args[0])
	},
}

func init() {
	locationAddCommand.Flags().BoolVar(&locationAddConfiguration.folder, "folder", false, "Track a whole folder instead of a single file")
	locationCommand.AddCommand(locationAddCommand, locationToggleCommand, locationRemoveCommand)
}
