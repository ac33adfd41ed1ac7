package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCommand = &cobra.Command{
	Use:   "verify <snapshot-id>",
	Short: "Recomputes checksums and reports integrity issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		result, err := eng.Verify(args[0])
		if err != nil {
			return err
		}
		if result.OK {
			fmt.Println("OK: snapshot matches its recorded checksums.")
			return nil
		}
		fmt.Printf("FAILED: %d issue(s) found.\n", result.Issues)
		return nil
	},
}
