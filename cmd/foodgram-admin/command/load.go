package command

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"foodgram/database"
	"foodgram/internal/ingestion/catalog"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load catalog data",
	Long:  `Load the tag and ingredient catalog from files. Records already present are skipped.`,
}

var loadIngredientsCmd = &cobra.Command{
	Use:   "ingredients [file.csv|file.json]",
	Short: "Load ingredients from `name,unit` CSV rows or a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := catalog.FormatFromPath(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		records, err := catalog.ReadIngredients(f, format)
		if err != nil {
			return err
		}

		log := newLogger()
		db, err := openDB(log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		res, err := catalog.NewLoader(db, log).LoadIngredients(cmd.Context(), records)
		if err != nil {
			return fmt.Errorf("ingredient import failed: %w", err)
		}
		printResult("ingredients", res)
		return nil
	},
}

var loadTagsCmd = &cobra.Command{
	Use:   "tags [file.json]",
	Short: "Load tags from a JSON array of {name, color, slug}",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		records, err := catalog.ReadTags(f)
		if err != nil {
			return err
		}

		log := newLogger()
		db, err := openDB(log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		res, err := catalog.NewLoader(db, log).LoadTags(cmd.Context(), records)
		if err != nil {
			return fmt.Errorf("tag import failed: %w", err)
		}
		printResult("tags", res)
		return nil
	},
}

func printResult(what string, res catalog.Result) {
	color.Green("✓ Created %d %s", res.Created, what)
	if res.Skipped > 0 {
		color.Yellow("  skipped %d already present or incomplete", res.Skipped)
	}
}

func init() {
	loadCmd.AddCommand(loadIngredientsCmd)
	loadCmd.AddCommand(loadTagsCmd)
	rootCmd.AddCommand(loadCmd)
}
