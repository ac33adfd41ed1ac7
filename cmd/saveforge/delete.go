package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCommand = &cobra.Command{
	Use:   "delete <snapshot-id>",
	Short: "Deletes a snapshot and its files from disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		if err := eng.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Snapshot deleted.")
		return nil
	},
}
