package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/watch"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

var (
	importWatch    bool
	importIndex    bool
	importJSON     bool
	importDebounce time.Duration
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import document-structure files",
	Long: `Import chapters from document-structure files (JSON or YAML).

Files are read in order, so a later file overwrites chapters with the same id
from an earlier one. Three layouts are recognised:
  structure_analysis   chapter list without content
  chapters             chapters with content
  pages                full text, stored as chapters 10000+page

Examples:
  chapterdex import structure.json rag.json full_text.json --index
  chapterdex import rag.yaml --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "re-import when the files change")
	importCmd.Flags().BoolVar(&importIndex, "index", false, "rebuild the vector index after importing")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "output the import report as JSON")
	importCmd.Flags().DurationVar(&importDebounce, "debounce", watch.DefaultDebounce, "quiet period before a re-import")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := requireService(importService != nil, "import"); err != nil {
		return err
	}
	if importIndex {
		if err := requireService(indexService != nil, "index"); err != nil {
			return err
		}
	}

	report, err := importService.ImportFiles(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if err := reportImport(cmd, report); err != nil {
		return err
	}
	if importIndex {
		if err := rebuildAfterImport(cmd, cmd.Context()); err != nil {
			return err
		}
	}

	if !importWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println(styled(cmd, dimStyle, "Watching for changes. Press Ctrl+C to stop."))

	w := watch.New(importService, args,
		watch.WithDebounce(importDebounce),
		watch.WithCallback(func(r *domain.ImportReport, err error) {
			if err != nil {
				cmd.PrintErrf("Re-import failed: %v\n", err)
				return
			}
			_ = reportImport(cmd, r)
			if importIndex {
				if err := rebuildAfterImport(cmd, ctx); err != nil {
					cmd.PrintErrln(err)
				}
			}
		}),
	)
	return w.Run(ctx)
}

func reportImport(cmd *cobra.Command, report *domain.ImportReport) error {
	if importJSON {
		return printJSON(cmd, report)
	}

	for i, f := range report.Files {
		format := ""
		if i < len(report.Formats) {
			format = string(report.Formats[i])
		}
		cmd.Printf("  %s %s\n", f, styled(cmd, tagStyle, format))
	}
	cmd.Printf("Imported %d chapters and %d pages, skipped %d (import %s)\n",
		report.Imported, report.Pages, report.Skipped, report.ImportID)
	return nil
}

func rebuildAfterImport(cmd *cobra.Command, ctx context.Context) error {
	report, err := indexService.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	cmd.Printf("Indexed %d of %d chapters (%d errors)\n", report.Processed, report.Total, report.Errors)
	return nil
}
