package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCommand = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Restores a snapshot, taking a safety backup first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		if err := eng.RestoreSnapshot(args[0]); err != nil {
			return err
		}
		fmt.Println("Restore complete.")
		return nil
	},
}
