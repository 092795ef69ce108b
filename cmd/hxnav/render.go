package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/internal/demo"
)

var renderCmd = &cobra.Command{
	Use:   "render PATH",
	Short: "Render one demo page to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		srv, err := hxnav.NewServer(cfg, demo.NewRoutes(demo.NewSampleStore()),
			hxnav.WithLogger(newLogger(cmd, cfg)))
		if err != nil {
			return err
		}

		result := hxnav.TestServe(srv, args[0])
		switch {
		case result.WasRedirected():
			fmt.Fprintf(cmd.OutOrStdout(), "%d -> %s\n", result.StatusCode, result.GetHeader("Location"))
			return nil
		case result.StatusCode != http.StatusOK:
			fmt.Fprintln(cmd.OutOrStdout(), result.HTML)
			return fmt.Errorf("%s: status %d", args[0], result.StatusCode)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.HTML)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
