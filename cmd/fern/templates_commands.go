package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/startup"
)

// templateFile is the YAML layout accepted by `fern templates import`:
//
//	templates:
//	  - id: push-day
//	    exercises: [Bench Press, Incline DB Press]
type templateFile struct {
	Templates []templateDefinition `yaml:"templates"`
}

type templateDefinition struct {
	ID        string   `yaml:"id"`
	Exercises []string `yaml:"exercises"`
}

type importSummary struct {
	TemplateID string `yaml:"template_id"`
	Entries    int    `yaml:"entries"`
	Linked     int    `yaml:"linked"`
}

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Workout template maintenance",
	}

	templatesCmd.AddCommand(newTemplatesImportCommand(ctx))

	return templatesCmd
}

func newTemplatesImportCommand(ctx *commandContext) *cobra.Command {
	var ownerID string
	var filePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Save templates from a YAML file and auto-link their exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID = strings.TrimSpace(ownerID)
			if ownerID == "" {
				return errors.New("--owner is required")
			}

			file, err := loadTemplateFile(filePath)
			if err != nil {
				return err
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

			summaries := make([]importSummary, 0, len(file.Templates))
			for _, tmpl := range file.Templates {
				inputs := make([]models.ExerciseInput, len(tmpl.Exercises))
				for i, name := range tmpl.Exercises {
					inputs[i] = models.ExerciseInput{Name: name, OrderIndex: i}
				}

				statuses, err := app.Engine.Templates.SaveTemplateExercises(cmd.Context(), ownerID, tmpl.ID, inputs)
				if err != nil {
					return fmt.Errorf("template %s: %w", tmpl.ID, err)
				}

				summary := importSummary{TemplateID: tmpl.ID, Entries: len(statuses)}
				for _, status := range statuses {
					if status.IsLinked {
						summary.Linked++
					}
				}
				summaries = append(summaries, summary)
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			defer encoder.Close()
			return encoder.Encode(map[string][]importSummary{"imported": summaries})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner the templates belong to")
	cmd.Flags().StringVarP(&filePath, "file", "f", "templates.yaml", "YAML file describing the templates")

	return cmd
}

func loadTemplateFile(filePath string) (*templateFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, tmpl := range file.Templates {
		if strings.TrimSpace(tmpl.ID) == "" {
			return nil, fmt.Errorf("template %d has no id", i)
		}
	}

	return &file, nil
}
