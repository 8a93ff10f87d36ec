package cli

import (
	"fmt"

	"github.com/canvasgrab/canvasgrab/internal/logger"
	"github.com/canvasgrab/canvasgrab/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var (
		courseID   string
		outputDir  string
		extensions []string
		dryRun     bool
		extract    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the files of a course",
		Long: `Discover all files of a Canvas course through both the flat file
listing and the module structure, then download every file whose
extension is on the allow-list into the output directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if courseID != "" {
				cfg.Canvas.CourseID = courseID
			}
			if outputDir != "" {
				cfg.Settings.OutputDir = outputDir
			}
			if len(extensions) > 0 {
				cfg.Settings.AllowedExtensions = extensions
			}
			if extract {
				cfg.Settings.Extract = true
			}

			if err := requireCanvas(cfg); err != nil {
				return err
			}

			orch, err := loadOrchestrator(cfg)
			if err != nil {
				return err
			}

			summary, err := orch.Run(cmd.Context(), cfg.Canvas.CourseID, orchestrator.Options{
				OutputDir:  cfg.OutputDir(),
				Extensions: cfg.Settings.AllowedExtensions,
				DryRun:     dryRun,
				Extract:    cfg.Settings.Extract,
			})
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			logger.Success("Fetch complete", logger.Fields{
				"downloaded": summary.Downloaded,
				"skipped":    summary.Skipped,
				"errors":     summary.Errors,
			})
			fmt.Printf("\nDownload process finished.\n")
			fmt.Printf("Successfully downloaded: %d files\n", summary.Downloaded)
			fmt.Printf("Skipped (wrong extension or refused): %d files\n", summary.Skipped)
			fmt.Printf("Errors encountered: %d files\n", summary.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course ID to fetch (overrides config/env)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: canvas_course_<id>_files)")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "Extension allow-list, e.g. .pdf,.docx (overrides config/env)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List planned downloads without downloading")
	cmd.Flags().BoolVar(&extract, "extract", false, "Unpack downloaded archives next to the archive file")

	return cmd
}
