package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsConfiguration struct {
	storageRoot    string
	retentionCount int
	frequency      int
}

var settingsCommand = &cobra.Command{
	Use:   "settings",
	Short: "Shows or updates backup settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEngine(); err != nil {
			return err
		}

		changed := false
		s := eng.Boot.Settings
		if settingsConfiguration.storageRoot != "" {
			s.StorageRoot = settingsConfiguration.storageRoot
			changed = true
		}
		if cmd.Flags().Changed("retention") {
			s.RetentionCount = settingsConfiguration.retentionCount
			changed = true
		}
		if cmd.Flags().Changed("frequency") {
			s.BackupFrequencyMinutes = settingsConfiguration.frequency
			changed = true
		}

		if changed {
			if err := eng.UpdateSettings(s); err != nil {
				return err
			}
		}

		fmt.Printf("Storage root: %s\n", eng.Boot.Settings.StorageRoot)
		fmt.Printf("Retention count: %d\n", eng.Boot.Settings.RetentionCount)
		fmt.Printf("Backup frequency: %d minute(s)\n", eng.Boot.Settings.BackupFrequencyMinutes)
		return nil
	},
}

func init() {
	flags := settingsCommand.Flags()
	flags.StringVar(&settingsConfiguration.storageRoot, "storage-root", "", "Move the backup storage root to a new path")
	flags.IntVar(&settingsConfiguration.retentionCount, "retention", 0, "Number of snapshots to keep per game")
	flags.IntVar(&settingsConfiguration.frequency, "frequency", 0, "Automatic backup frequency, in minutes")
}
