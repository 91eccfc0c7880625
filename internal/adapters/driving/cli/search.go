package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

var (
	searchLimit int
	searchType  string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search documentation chapters",
	Long: `Searches the chapter corpus.

Search types:
  hybrid   - semantic and keyword rankings fused 0.7/0.3 (default)
  semantic - cosine similarity of embedding vectors
  keyword  - share of query words found in chapter titles

Until the vector index is built ('chapterdex index build') every type
falls back to substring search over titles and content.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "search type: hybrid, semantic or keyword")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireService(searchService != nil, "search"); err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Limit: searchLimit,
		Type:  domain.SearchType(searchType),
	}

	resp, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, resp)
	}

	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if resp.Fallback {
		cmd.Println(styled(cmd, warnStyle, "Vector index not built; showing substring matches."))
		cmd.Println()
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(styled(cmd, headingStyle, fmt.Sprintf("Results (%s):", resp.Type)))
	cmd.Println()
	for i := range resp.Results {
		r := resp.Results[i]
		// Format: [N] Title (score) type
		cmd.Printf("  [%d] %s %s %s\n", i+1, r.Title,
			styled(cmd, dimStyle, fmt.Sprintf("(%.3f)", r.FinalScore)),
			styled(cmd, tagStyle, string(r.SearchType)))
		cmd.Printf("      chapter %d\n", r.ChapterID)
	}
	cmd.Println()

	return nil
}
