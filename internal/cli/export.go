package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lessonloop/internal/analytics"
	"lessonloop/internal/app"
	"lessonloop/internal/config"
)

// NewExportCmd writes the CSV report of a class, on behalf of its teacher.
func NewExportCmd(configPath *string) *cobra.Command {
	var classID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a class report as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger("export", cfg.Log.Level)
			b, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			name, err := exportClass(cmd.Context(), b.stores, classID, w)
			if err != nil {
				return err
			}
			if out != "" {
				logger.Infof("wrote %s to %s", name, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

// exportClass renders the report of classID to w and returns its file name.
func exportClass(ctx context.Context, stores app.Stores, classID string, w io.Writer) (string, error) {
	class, err := stores.Classes.GetClass(ctx, classID)
	if err != nil {
		return "", err
	}
	teacher, err := stores.Users.GetUser(ctx, class.TeacherID)
	if err != nil {
		return "", err
	}
	report, err := app.NewClassService(stores).Export(ctx, teacher, classID)
	if err != nil {
		return "", err
	}
	if err := analytics.WriteReport(w, report); err != nil {
		return "", err
	}
	return analytics.ReportFilename(report.Class.Name), nil
}
