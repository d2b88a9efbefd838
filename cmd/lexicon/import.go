package main

import (
	"github.com/phrazzld/scry-lexicon/internal/vocabulary"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	cfg := vocabulary.DefaultImportConfig()

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import vocabulary items from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(app *application) error {
				result, err := app.importer(cfg).ImportFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.SheetName, "sheet", cfg.SheetName, "Worksheet to read (xlsx only; empty means the first sheet)")
	f.IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "First data row, 1-based")
	f.StringVar(&cfg.WordColumn, "word-col", cfg.WordColumn, "Column holding the word")
	f.StringVar(&cfg.TranslationColumn, "translation-col", cfg.TranslationColumn, "Column holding the translation")
	f.StringVar(&cfg.CategoryColumn, "category-col", cfg.CategoryColumn, "Column holding the category")
	f.StringVar(&cfg.DifficultyColumn, "difficulty-col", cfg.DifficultyColumn, "Column holding the difficulty (empty to use the default)")
	return cmd
}
