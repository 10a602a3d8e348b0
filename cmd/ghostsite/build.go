package main

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch content and render the site to the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		_, err = e.builder.Build(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
