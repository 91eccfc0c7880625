package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

const importRAG = `{
  "metadata": {"title": "Mobile SMARTS", "page_count": 120},
  "chapters": [
    {"id": 1, "title": "Поступление товара", "content": "Приемка товара на склад"},
    {"id": 2, "title": "", "content": "без заголовка"},
    {"id": 3, "title": "Печать этикеток", "content": ["Настройка принтера"]}
  ]
}`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportCmd_RequiresFiles(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "import")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestImportCmd_Flags(t *testing.T) {
	for _, name := range []string{"watch", "index", "json", "debounce"} {
		assert.NotNil(t, importCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "w", importCmd.Flags().Lookup("watch").Shorthand)
}

func TestImportCmd_Imports(t *testing.T) {
	svc := setupTestServices(t)
	path := writeFixture(t, "rag.json", importRAG)

	out, err := execute(t, "import", path)

	require.NoError(t, err)
	assert.Contains(t, out, string(domain.ImportFormatRAG))
	assert.Contains(t, out, "Imported 2 chapters and 0 pages, skipped 1")

	ch, err := svc.chapters.GetChapter(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Печать этикеток", ch.Title)
	assert.False(t, svc.vectors.Ready())
}

func TestImportCmd_JSONReport(t *testing.T) {
	setupTestServices(t)
	path := writeFixture(t, "rag.json", importRAG)

	out, err := execute(t, "import", "--json", path)
	require.NoError(t, err)

	var report domain.ImportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.NotEmpty(t, report.ImportID)
	assert.Equal(t, []string{path}, report.Files)
}

func TestImportCmd_WithIndex(t *testing.T) {
	svc := setupTestServices(t)
	path := writeFixture(t, "rag.json", importRAG)

	out, err := execute(t, "import", "--index", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 of 2 chapters (0 errors)")
	assert.True(t, svc.vectors.Ready())
}

func TestImportCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "import", filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "import failed")
}
