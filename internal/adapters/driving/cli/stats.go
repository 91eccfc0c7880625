package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show imported document information",
	RunE:  runInfo,
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Read and write document metadata",
}

var metadataGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a metadata value",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetadataGet,
}

var metadataSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a metadata value",
	Args:  cobra.ExactArgs(2),
	RunE:  runMetadataSet,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	infoCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")

	metadataCmd.AddCommand(metadataGetCmd)
	metadataCmd.AddCommand(metadataSetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(metadataCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	stats, err := chapterService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println(styled(cmd, headingStyle, "Corpus Statistics"))
	cmd.Printf("  Chapters:              %d\n", stats.TotalChapters)
	cmd.Printf("  Chapters with content: %d\n", stats.ChaptersWithContent)
	cmd.Printf("  Chapters with tables:  %d\n", stats.ChaptersWithTables)
	cmd.Printf("  Chapters with images:  %d\n", stats.ChaptersWithImages)
	cmd.Printf("  Content lines:         %d\n", stats.TotalContentLines)
	cmd.Printf("  Tables:                %d\n", stats.TotalTables)
	cmd.Printf("  Images:                %d\n", stats.TotalImages)
	return nil
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	info, err := chapterService.DocumentInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get document info: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, info)
	}

	cmd.Println(styled(cmd, headingStyle, info.Title))
	cmd.Printf("  Pages:                 %s\n", optionalInt(info.PageCount))
	cmd.Printf("  File size:             %s\n", optionalInt(info.FileSize))
	cmd.Printf("  Chapters:              %s\n", optionalInt(info.TotalChapters))
	cmd.Printf("  Chapters with content: %s\n", optionalInt(info.ChaptersWithContent))
	return nil
}

func runMetadataGet(cmd *cobra.Command, args []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	value, err := chapterService.GetMetadata(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("metadata %q: %w", args[0], err)
	}
	cmd.Println(value)
	return nil
}

func runMetadataSet(cmd *cobra.Command, args []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	if err := chapterService.SetMetadata(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func optionalInt(p *int) string {
	if p == nil {
		return "unknown"
	}
	return strconv.Itoa(*p)
}
