package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addConfiguration struct {
	exePath     string
	installPath string
}

var addCommand = &cobra.Command{
	Use:   "add <name>",
	Short: "Registers a new game to track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		g, err := eng.AddGame(args[0], addConfiguration.exePath, addConfiguration.installPath)
		if err != nil {
			return err
		}
		fmt.Printf("Added %q (id: %s)\n", g.Name, g.ID)
		return nil
	},
}

func init() {
	flags := addCommand.Flags()
	flags.StringVar(&addConfiguration.exePath, "exe", "", "Path to the game's executable")
	flags.StringVar(&addConfiguration.installPath, "install-path", "", "Path to the game's install directory")
}
