package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orbis-edu/orbis/internal/app"
	"github.com/orbis-edu/orbis/internal/catalog"
	"github.com/orbis-edu/orbis/internal/config"
)

var coursesCmd = &cobra.Command{
	Use:   "courses <file.json>",
	Short: "Import courses from a JSON file",
	Long: `Import courses from a JSON file.

The file holds an array of objects with code, name, description, and
keywords fields. Each course is embedded and upserted by code, so the
command is safe to re-run after catalog updates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCourses(args[0])
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}

func runCourses(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	courses, err := loadCourses(path)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	for _, c := range courses {
		id, err := a.Catalog.UpsertCourse(ctx, c)
		if err != nil {
			return fmt.Errorf("importing course %q: %w", c.Code, err)
		}
		logger.Info("course imported", "code", c.Code, "id", id)
	}

	fmt.Printf("Imported %d courses\n", len(courses))
	return nil
}

// loadCourses reads a JSON array of courses from path.
func loadCourses(path string) ([]catalog.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading courses file: %w", err)
	}

	var courses []catalog.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("parsing courses file %q: %w", path, err)
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("no courses in %q", path)
	}
	return courses, nil
}
