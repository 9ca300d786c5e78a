package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/catalog"
	"github.com/ziadkadry99/barback/internal/db"
	"github.com/ziadkadry99/barback/internal/progress"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the drink catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file|glob>...",
	Short: "Import drinks from YAML files, embed them and rebuild the index",
	Example: `  barback catalog import testdata/catalog.yml
  barback catalog import 'menus/**/*.yml'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := context.Background()

		drinks, err := catalog.LoadSeedFiles(args...)
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		store := catalog.NewStore(database)
		reporter := progress.NewReporter("Embedding drinks")
		reporter.Start(len(drinks))
		err = catalog.Import(ctx, store, embedder, drinks, func(done int) {
			reporter.Update(done, fmt.Sprintf("%d/%d drinks", done, len(drinks)))
		})
		reporter.Finish()
		if err != nil {
			return err
		}

		index, err := rebuildIndex(ctx, cfg, store, logger)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d drink(s); %d in the index.\n", len(drinks), index.Count())
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the drinks in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		drinks, err := catalog.NewStore(database).List(context.Background())
		if err != nil {
			return err
		}
		if len(drinks) == 0 {
			fmt.Println("The catalog is empty. Run `barback catalog import <file>`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tNAME\tEMBEDDED")
		for _, d := range drinks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", d.Position, d.ID, d.Name, len(d.Embedding) > 0)
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}
