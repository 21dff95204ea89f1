package cmd

import (
	"fmt"

	"github.com/josephlewis42/osh/core/directive"
	"github.com/spf13/cobra"
)

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "Show the supported directives.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Directives:")
		directive.PrintDirectives(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(directivesCmd)
}
