package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var detailCommand = &cobra.Command{
	Use:   "detail <game-id>",
	Short: "Shows a game's save locations and snapshot history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		detail, err := eng.GetGameDetail(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", detail.Game.Name, detail.Game.Status)
		fmt.Println("Save locations:")
		for _, l := range detail.Locations {
			state := "enabled"
			if !l.Enabled {
				state = "disabled"
			}
			exists := "missing"
			if l.Exists {
				exists = "present"
			}
			fmt.Printf("  [%s] %s (%s, %s)\n", l.ID, l.Path, state, exists)
		}

		fmt.Println("Snapshots:")
		for _, s := range detail.Snapshots {
			fmt.Printf("  [%s] %s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Bytes(uint64(s.SizeBytes)), s.Reason)
		}
		return nil
	},
}
