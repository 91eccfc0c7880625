package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
	Long: `Build and inspect the vector index used by semantic and hybrid search.

Editing chapters does not re-embed them; run 'chapterdex index build'
after an import or use 'chapter add --index'.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed every chapter and replace the vector index",
	RunE:  runIndexBuild,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runIndexStats,
}

var indexVectorCmd = &cobra.Command{
	Use:   "vector [chapter-id]",
	Short: "Show the embedding of a chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexVector,
}

var indexVocabCmd = &cobra.Command{
	Use:   "vocab [words...]",
	Short: "Add terms to the embedding vocabulary",
	Long: `Adds terms to the hash vocabulary for this run.

Existing embeddings are unchanged; the new terms only take effect in
vectors computed afterwards. To keep terms across runs, list them under
embedding.vocabulary in config.toml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexVocab,
}

func init() {
	indexStatsCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexVectorCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexVectorCmd)
	indexCmd.AddCommand(indexVocabCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if err := requireService(indexService != nil, "index"); err != nil {
		return err
	}

	start := time.Now()
	report, err := indexService.Rebuild(cmd.Context())
	if report != nil {
		cmd.Printf("Embedded %d of %d chapters (%d errors) in %s\n",
			report.Processed, report.Total, report.Errors, time.Since(start).Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if err := requireService(indexService != nil, "index"); err != nil {
		return err
	}

	stats := indexService.Stats(cmd.Context())
	if indexJSON {
		return printJSON(cmd, stats)
	}

	status := "not built"
	if stats.IsInitialized {
		status = "ready"
	}

	cmd.Println(styled(cmd, headingStyle, "Vector Index"))
	cmd.Printf("  Status:     %s\n", status)
	cmd.Printf("  Embeddings: %d\n", stats.TotalEmbeddings)
	cmd.Printf("  Model:      %s\n", stats.Model.Name)
	cmd.Printf("  Dimension:  %d\n", stats.Model.Dimension)
	if stats.Model.VocabularySize > 0 {
		cmd.Printf("  Vocabulary: %d terms\n", stats.Model.VocabularySize)
	}
	return nil
}

func runIndexVector(cmd *cobra.Command, args []string) error {
	if err := requireService(indexService != nil, "index"); err != nil {
		return err
	}
	id, err := parseChapterID(args[0])
	if err != nil {
		return err
	}

	rec, err := indexService.GetVector(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("vector %d: %w", id, err)
	}

	if indexJSON {
		return printJSON(cmd, rec)
	}

	cmd.Println(styled(cmd, headingStyle, rec.Title))
	cmd.Printf("  Generated: %s\n", rec.GeneratedAt.Format(time.RFC3339))
	cmd.Printf("  Dimension: %d\n", len(rec.Embedding))
	cmd.Printf("  Head:      %s\n", formatVectorHead(rec.Embedding, 8))
	return nil
}

func runIndexVocab(cmd *cobra.Command, args []string) error {
	if err := requireService(indexService != nil, "index"); err != nil {
		return err
	}

	added, err := indexService.ExpandVocabulary(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("failed to expand vocabulary: %w", err)
	}
	cmd.Printf("Added %d new terms\n", added)
	return nil
}

// formatVectorHead renders the first n components of a vector.
func formatVectorHead(v []float32, n int) string {
	if len(v) < n {
		n = len(v)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.3f", v[i])
	}
	head := "[" + strings.Join(parts, " ")
	if len(v) > n {
		head += " ..."
	}
	return head + "]"
}
