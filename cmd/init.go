package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize barback configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks providers, checkpoint storage and interview thresholds, then writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.RunWizard(cfgFile); err != nil {
			return err
		}
		fmt.Println("Next: run `barback catalog import <file>` to stock the bar.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
