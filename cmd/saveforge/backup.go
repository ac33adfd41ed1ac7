package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/saveforge/backupcore/internal/model"
)

var backupCommand = &cobra.Command{
	Use:   "backup <game-id>",
	Short: "Creates a new snapshot of a game's enabled save locations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		snap, err := eng.Backup(args[0], model.ReasonManual)
		if err != nil {
			return err
		}
		if snap == nil {
			fmt.Println("No snapshot created: no enabled locations had files to back up, or a backup was already in progress.")
			return nil
		}
		fmt.Printf("Created snapshot %s (%s)\n", snap.ID, humanize.Bytes(uint64(snap.SizeBytes)))
		return nil
	},
}
