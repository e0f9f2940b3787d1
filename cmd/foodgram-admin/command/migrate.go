package command

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"foodgram/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(newLogger())
		if err != nil {
			return err
		}
		defer database.Close(db)

		color.Green("✓ Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
