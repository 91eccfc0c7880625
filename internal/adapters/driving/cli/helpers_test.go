package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/hashvocab"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/services"
)

// testServices exposes the concrete services behind the CLI globals.
type testServices struct {
	chapters *services.DocumentStore
	vectors  *services.VectorIndex
	index    *services.IndexService
	settings *services.SettingsService
}

// setupTestServices wires real services over in-memory snapshots and
// returns a cleanup that restores globals and flag values.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	snapshots := memory.NewSnapshotStore()
	chapters := services.NewDocumentStore(snapshots)
	embedder := hashvocab.NewEmbeddingService(hashvocab.Config{})
	vectors := services.NewVectorIndex(embedder, snapshots, 2)
	index := services.NewIndexService(chapters, vectors, embedder)
	settings := services.NewSettingsService(memory.NewConfigStore(), nil)

	SetServices(&Services{
		Chapters: chapters,
		Search:   services.NewSearchService(chapters, vectors),
		Index:    index,
		Import:   services.NewImportService(chapters),
		Settings: settings,
	})

	t.Cleanup(resetCLIState)
	return &testServices{chapters: chapters, vectors: vectors, index: index, settings: settings}
}

func resetCLIState() {
	SetServices(&Services{})
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)

	verbose = false
	searchLimit, searchType, searchJSON = 10, "", false
	chapterJSON, chapterPage, chapterLimit, chapterSearch = false, 1, 20, ""
	chapterAddInput, chapterContent, chapterFile, chapterReindex = domain.ChapterInput{}, "", "", false
	statsJSON, indexJSON = false, false
	importWatch, importIndex, importJSON = false, false, false
	searchDefaultLimit, searchDefaultType = 0, ""
	servePort, serveHost, serveAutoPort, serveRebuild = 0, "", false, 0
}

// seed stores three chapters.
func (s *testServices) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []domain.ChapterInput{
		{ChapterID: 1, Title: "Настройка принтера", Content: domain.TextContent("Подключение принтера этикеток"), PageStart: 3},
		{ChapterID: 2, Title: "Поступление товара", Content: domain.TextContent("Приемка товара на склад"), TablesCount: 1},
		{ChapterID: 3, Title: "Инвентаризация", Content: domain.TextContent("Пересчет остатков"), ImagesCount: 2},
	} {
		require.NoError(t, s.chapters.UpsertChapter(ctx, in))
	}
}

// execute runs the root command and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// executeWithInput runs the root command reading stdin from input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	rootCmd.SetIn(strings.NewReader(input))
	return execute(t, args...)
}
