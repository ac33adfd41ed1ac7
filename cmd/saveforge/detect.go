package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/saveforge/backupcore/internal/detect"
)

var detectConfiguration struct {
	exePath     string
	installPath string
}

var detectCommand = &cobra.Command{
	Use:   "detect <game-name>",
	Short: "Searches the catalog for likely save-data locations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}
		isTTY := isatty.IsTerminal(os.Stdout.Fd())

		progress := func(p detect.Progress) {
			if !isTTY {
				return
			}
			fmt.Printf("\r%3d%%  %s", p.Percent, p.Message)
			if p.Percent == 100 {
				fmt.Println()
			}
		}

		result, err := eng.DetectCatalogSavePaths(args[0], detectConfiguration.exePath, detectConfiguration.installPath, progress)
		if err != nil {
			return err
		}

		fmt.Printf("Status: %s\n", result.Status)
		if result.MatchedTitle != "" {
			fmt.Printf("Matched title: %s (score %.2f)\n", result.MatchedTitle, result.MatchScore)
		}
		for _, c := range result.Candidates {
			fmt.Printf("  %.2f  %s\n", c.Score, c.Path)
		}
		for _, w := range result.Warnings {
			fmt.Println("warning:", w)
		}
		return nil
	},
}

func init() {
	flags := detectCommand.Flags()
	flags.StringVar(&detectConfiguration.exePath, "exe", "", "Path to the game's executable")
	flags.StringVar(&detectConfiguration.installPath, "install-path", "", "Path to the game's install directory")
}
