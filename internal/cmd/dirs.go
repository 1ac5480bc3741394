package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fleetops/ultragrid/internal/config"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Print directories used by ultragrid",
	Long: `Print the directories where ultragrid reads its configuration and
writes its log files.`,
	Example: `
# Print all directories
ultragrid dirs

# Print only the config directory
ultragrid dirs --config
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		configOnly, _ := cmd.Flags().GetBool("config")

		configDir := filepath.Dir(config.GlobalConfig())

		if configOnly {
			fmt.Println(configDir)
			return nil
		}

		fmt.Printf("Config directory: %s\n", configDir)
		fmt.Printf("Log directory:    %s\n", configDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirsCmd)
	dirsCmd.Flags().Bool("config", false, "Print only the config directory")
}
