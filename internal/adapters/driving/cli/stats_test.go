package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestStatsCmd(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)

	out, err := execute(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Corpus Statistics")
	assert.Contains(t, out, "Chapters:              3")
	assert.Contains(t, out, "Chapters with tables:  1")
	assert.Contains(t, out, "Images:                2")
}

func TestStatsCmd_JSON(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)

	out, err := execute(t, "stats", "--json")
	require.NoError(t, err)

	var stats domain.Statistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 3, stats.TotalChapters)
	assert.Equal(t, 1, stats.TotalTables)
}

func TestInfoCmd_Unknowns(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "info")

	require.NoError(t, err)
	assert.Contains(t, out, domain.DefaultDocumentTitle)
	assert.Contains(t, out, "Pages:                 unknown")
}

func TestInfoCmd_FromMetadata(t *testing.T) {
	svc := setupTestServices(t)
	ctx := context.Background()
	require.NoError(t, svc.chapters.SetMetadata(ctx, domain.MetaDocumentTitle, "Mobile SMARTS"))
	require.NoError(t, svc.chapters.SetMetadata(ctx, domain.MetaPageCount, "412"))

	out, err := execute(t, "info")

	require.NoError(t, err)
	assert.Contains(t, out, "Mobile SMARTS")
	assert.Contains(t, out, "Pages:                 412")
}

func TestMetadataCmd_SetThenGet(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "metadata", "set", "owner", "warehouse team")
	require.NoError(t, err)
	assert.Contains(t, out, "Set owner")

	out, err = execute(t, "metadata", "get", "owner")
	require.NoError(t, err)
	assert.Equal(t, "warehouse team\n", out)
}

func TestMetadataCmd_GetMissing(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "metadata", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOptionalInt(t *testing.T) {
	n := 7
	assert.Equal(t, "7", optionalInt(&n))
	assert.Equal(t, "unknown", optionalInt(nil))
}
