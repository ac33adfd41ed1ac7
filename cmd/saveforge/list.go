package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/saveforge/backupcore/internal/model"
)

func statusColor(status model.GameStatus) func(format string, a ...interface{}) string {
	switch status {
	case model.StatusProtected:
		return color.GreenString
	case model.StatusWarning:
		return color.YellowString
	default:
		return color.RedString
	}
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "Lists every tracked game and its backup status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		games := eng.ListGames()
		if len(games) == 0 {
			fmt.Println("No games tracked yet. Use 'saveforge add' to register one.")
			return nil
		}
		for _, g := range games {
			last := "never"
			if g.LastBackupAt != nil {
				last = humanize.Time(*g.LastBackupAt)
			}
			fmt.Printf("%-30s %s  last backup: %s", g.Name, statusColor(g.Status)("%s", g.Status), last)
			if g.IssueCount > 0 {
				fmt.Printf("  (%d recent issue(s))", g.IssueCount)
			}
			fmt.Println()
		}
		return nil
	},
}
