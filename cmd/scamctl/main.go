// Command scamctl is the ScamShield operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scamshield/internal/config"
	"scamshield/pkg/logger"
)

var root = &cobra.Command{
	Use:           "scamctl",
	Short:         "ScamShield operator CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	root.PersistentFlags().String("config", "", "set config file path")

	root.AddCommand(scoreCmd)
	root.AddCommand(levelCmd)
	root.AddCommand(migrateCmd)
	root.AddCommand(eventsCmd)
	root.AddCommand(tokenCmd)
	root.AddCommand(countsCmd)
}

func main() {
	_ = godotenv.Load()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scamctl:", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config flag shared by every command
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// cliLogger writes to stderr so command output stays pipeable
func cliLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: "console",
		Output: os.Stderr,
	})
}
