/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/shredrace/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file with the default streams, window and
logging settings, ready to edit.

Examples:
  shredrace init
  shredrace init --config /etc/shredrace/config.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")

		if err := writeStarterConfig(path, force); err != nil {
			return err
		}

		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("config", "shredrace.yaml", "Where to write the configuration")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

// writeStarterConfig saves the default configuration, refusing to clobber
// an existing file unless forced.
func writeStarterConfig(path string, force bool) error {
	if config.ConfigExists(path) && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	return config.SaveConfig(config.DefaultConfig(), path)
}
