package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fjl/decicalc/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the --config path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stat(configFile)
		switch {
		case err == nil && !configForce:
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return err
		}
		if err := config.DefaultConfig().Save(configFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", configFile)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
