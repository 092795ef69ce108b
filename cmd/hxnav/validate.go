package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a config file",
	Long:  `Loads the config file, applies the app root and client app rules and prints the environment config every navigation receives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s is valid\n", path)
		env := cfg.EnvironmentConfig()
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %v\n", k, env[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
