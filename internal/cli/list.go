package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		courseID string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the files of a course",
		Long: `List all files discovered for a Canvas course without downloading
anything. By default only files matching the extension allow-list are
shown; use --all to include the files that a fetch would skip.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if courseID != "" {
				cfg.Canvas.CourseID = courseID
			}
			if err := requireCanvas(cfg); err != nil {
				return err
			}

			builder := loadRegistryBuilder(cfg, loadCanvasClient(cfg))
			reg, err := builder.Build(cmd.Context(), cfg.Canvas.CourseID)
			if err != nil {
				return fmt.Errorf("failed to discover files: %w", err)
			}

			if reg.Len() == 0 {
				fmt.Println("No files found")
				return nil
			}

			allowed := make(map[string]bool, len(cfg.Settings.AllowedExtensions))
			for _, ext := range cfg.Settings.AllowedExtensions {
				ext = strings.ToLower(strings.TrimSpace(ext))
				if ext != "" && !strings.HasPrefix(ext, ".") {
					ext = "." + ext
				}
				allowed[ext] = true
			}

			tabWriter := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tabWriter, "ID\tNAME\tTYPE\tSIZE\tSTATUS")
			matching := 0
			for _, rec := range reg.Records() {
				status := "fetch"
				if allowed[strings.ToLower(filepath.Ext(rec.DisplayName))] {
					matching++
				} else {
					if !all {
						continue
					}
					status = "skip"
				}
				contentType := rec.ContentType
				if contentType == "" {
					contentType = "-"
				}
				_, _ = fmt.Fprintf(tabWriter, "%d\t%s\t%s\t%d\t%s\n", rec.ID, rec.DisplayName, contentType, rec.Size, status)
			}
			_ = tabWriter.Flush()

			fmt.Printf("\n%d of %d files match the extension allow-list\n", matching, reg.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course ID to list (overrides config/env)")
	cmd.Flags().BoolVar(&all, "all", false, "Include files that a fetch would skip")

	return cmd
}
