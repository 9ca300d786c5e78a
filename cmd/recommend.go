package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/matcher"
)

var (
	recommendIngredients []string
	recommendMoods       []string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank the catalog against ingredients and moods without a conversation",
	Example: `  barback recommend --ingredient lime --ingredient tequila --mood refreshed
  barback recommend --mood cozy,bitter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(recommendIngredients) == 0 && len(recommendMoods) == 0 {
			return fmt.Errorf("give at least one --ingredient or --mood")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		a, err := openApp(ctx, cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer a.Close()

		ingredients := dialogue.SignalSet(nil).Add(recommendIngredients...)
		moods := dialogue.SignalSet(nil).Add(recommendMoods...)
		candidates, err := a.matcher.Rank(ctx, ingredients, moods)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("No drinks indexed yet. Run `barback catalog import <file>` first.")
			return nil
		}

		if verbose {
			fmt.Printf("Query: %s\n\n", matcher.Query(ingredients, moods))
		}
		fmt.Print(matcher.FormatCandidates(candidates))
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringSliceVarP(&recommendIngredients, "ingredient", "i", nil, "Ingredient the patron likes (repeatable)")
	recommendCmd.Flags().StringSliceVarP(&recommendMoods, "mood", "m", nil, "Mood the drink should fit (repeatable)")
	rootCmd.AddCommand(recommendCmd)
}
