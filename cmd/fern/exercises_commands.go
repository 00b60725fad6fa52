package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/startup"
)

func newExercisesCommand(ctx *commandContext) *cobra.Command {
	exercisesCmd := &cobra.Command{
		Use:   "exercises",
		Short: "Exercise identity maintenance",
	}

	exercisesCmd.AddCommand(newExercisesMigrateCommand(ctx))

	return exercisesCmd
}

func newExercisesMigrateCommand(ctx *commandContext) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Link an owner's unlinked exercises to masters of the same name",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID = strings.TrimSpace(ownerID)
			if ownerID == "" {
				return errors.New("--owner is required")
			}

			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			app, err := startup.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			result, err := app.Engine.Migrator.MigrateExistingExercises(cmd.Context(), ownerID)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner whose exercises are migrated")

	return cmd
}
