package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

var chapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Manage chapters",
	Long:  `Read, list, add and delete chapters in the document store.`,
}

var chapterGetCmd = &cobra.Command{
	Use:   "get [chapter-id]",
	Short: "Show a chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterGet,
}

var chapterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chapters",
	RunE:  runChapterList,
}

var chapterAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a chapter",
	Long: `Adds a chapter, replacing any chapter with the same id.

The chapter comes either from flags or from a JSON file (--file) holding
chapter_id, title and content, where content is a string or an array of
blocks. With --index the chapter is also re-embedded into the vector index.`,
	RunE: runChapterAdd,
}

var chapterDeleteCmd = &cobra.Command{
	Use:   "delete [chapter-id]",
	Short: "Delete a chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapterDelete,
}

var (
	chapterJSON     bool
	chapterPage     int
	chapterLimit    int
	chapterSearch   string
	chapterAddInput domain.ChapterInput
	chapterContent  string
	chapterFile     string
	chapterReindex  bool
)

func init() {
	chapterGetCmd.Flags().BoolVar(&chapterJSON, "json", false, "output as JSON")

	chapterListCmd.Flags().IntVarP(&chapterPage, "page", "p", 1, "page number")
	chapterListCmd.Flags().IntVarP(&chapterLimit, "limit", "n", 20, "chapters per page")
	chapterListCmd.Flags().StringVarP(&chapterSearch, "search", "s", "", "filter by title or content")
	chapterListCmd.Flags().BoolVar(&chapterJSON, "json", false, "output as JSON")

	chapterAddCmd.Flags().IntVar(&chapterAddInput.ChapterID, "id", 0, "chapter id")
	chapterAddCmd.Flags().StringVar(&chapterAddInput.Title, "title", "", "chapter title")
	chapterAddCmd.Flags().StringVar(&chapterContent, "content", "", "chapter text")
	chapterAddCmd.Flags().IntVar(&chapterAddInput.PageStart, "page-start", 0, "first page in the source document")
	chapterAddCmd.Flags().StringVarP(&chapterFile, "file", "f", "", "read the chapter from a JSON file")
	chapterAddCmd.Flags().BoolVar(&chapterReindex, "index", false, "also update the vector index")

	chapterCmd.AddCommand(chapterGetCmd)
	chapterCmd.AddCommand(chapterListCmd)
	chapterCmd.AddCommand(chapterAddCmd)
	chapterCmd.AddCommand(chapterDeleteCmd)
	rootCmd.AddCommand(chapterCmd)
}

func parseChapterID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid chapter id %q", arg)
	}
	return id, nil
}

func runChapterGet(cmd *cobra.Command, args []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}
	id, err := parseChapterID(args[0])
	if err != nil {
		return err
	}

	ch, err := chapterService.GetChapter(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("chapter %d: %w", id, err)
	}

	if chapterJSON {
		return printJSON(cmd, ch)
	}

	cmd.Println(styled(cmd, headingStyle, ch.Title))
	cmd.Println(styled(cmd, dimStyle, fmt.Sprintf("chapter %d, page %d, %d lines, %d tables, %d images",
		ch.ChapterID, ch.PageStart, ch.ContentLines, ch.TablesCount, ch.ImagesCount)))
	if text := ch.Content.Flatten(); text != "" {
		cmd.Println()
		cmd.Println(text)
	}
	return nil
}

func runChapterList(cmd *cobra.Command, _ []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	page, err := chapterService.ListChapters(cmd.Context(), chapterPage, chapterLimit, chapterSearch)
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}

	if chapterJSON {
		return printJSON(cmd, page)
	}

	if len(page.Chapters) == 0 {
		cmd.Println("No chapters found.")
		return nil
	}

	for i := range page.Chapters {
		ch := page.Chapters[i]
		cmd.Printf("  %6d  %s\n", ch.ChapterID, truncate(ch.Title, 70))
	}
	cmd.Println()
	cmd.Println(styled(cmd, dimStyle, fmt.Sprintf("Page %d of %d (%d chapters)",
		page.Pagination.Page, page.Pagination.Pages, page.Pagination.Total)))
	return nil
}

func runChapterAdd(cmd *cobra.Command, _ []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}

	input := chapterAddInput
	if chapterFile != "" {
		data, err := os.ReadFile(chapterFile)
		if err != nil {
			return fmt.Errorf("read chapter file: %w", err)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return fmt.Errorf("parse chapter file: %w", err)
		}
	} else if chapterContent != "" {
		input.Content = domain.TextContent(chapterContent)
	}

	if chapterReindex {
		if err := requireService(indexService != nil, "index"); err != nil {
			return err
		}
		if err := indexService.UpsertAndIndex(cmd.Context(), input); err != nil {
			return fmt.Errorf("failed to add chapter: %w", err)
		}
	} else if err := chapterService.UpsertChapter(cmd.Context(), input); err != nil {
		return fmt.Errorf("failed to add chapter: %w", err)
	}

	cmd.Printf("Saved chapter %d: %s\n", input.ChapterID, input.Title)
	return nil
}

func runChapterDelete(cmd *cobra.Command, args []string) error {
	if err := requireService(chapterService != nil, "chapter"); err != nil {
		return err
	}
	id, err := parseChapterID(args[0])
	if err != nil {
		return err
	}

	// Prefer the index service so the embedding goes with the chapter.
	var deleted bool
	if indexService != nil {
		deleted, err = indexService.DeleteAndUnindex(cmd.Context(), id)
	} else {
		deleted, err = chapterService.DeleteChapter(cmd.Context(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}

	if !deleted {
		cmd.Printf("Chapter %d not found.\n", id)
		return nil
	}
	cmd.Printf("Deleted chapter %d\n", id)
	return nil
}
