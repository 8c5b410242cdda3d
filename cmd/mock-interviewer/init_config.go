package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		written, err := config.WriteDefaultTo(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", written)
		fmt.Fprintln(cmd.OutOrStdout(), "Set GEMINI_API_KEY in your environment or a .env file before running 'mock-interviewer serve'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
