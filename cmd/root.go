package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "barback",
	Short: "A conversational bartender that interviews you and recommends a drink",
	Long: `Barback chats with you about your mood and the flavors you like, then
ranks its drink catalog by semantic similarity to what it learned and
recommends the best match. Run it as an HTTP/WebSocket server or chat
with it directly in the terminal.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".barback.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
