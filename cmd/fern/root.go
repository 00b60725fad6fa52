package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFileFlag string

	ctx := newCommandContext(&envFileFlag)

	rootCmd := &cobra.Command{
		Use:           "fern",
		Short:         "Exercise identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Path to a .env file (defaults to ./.env)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newDBCommand(ctx))
	rootCmd.AddCommand(newExercisesCommand(ctx))
	rootCmd.AddCommand(newTemplatesCommand(ctx))

	return rootCmd
}
