package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCommand = &cobra.Command{
	Use:   "scan",
	Short: "Reconciles the library index with what's actually on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		result, err := eng.Scan()
		if err != nil {
			return err
		}
		fmt.Printf("Added: %d  Removed: %d (%d files)  Skipped: %d unknown game(s), %d invalid\n",
			result.Added, result.Removed, result.RemovedFiles, result.SkippedUnknownGames, result.SkippedInvalid)
		return nil
	},
}
