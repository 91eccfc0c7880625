package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_FallbackBeforeBuild(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)

	out, err := execute(t, "search", "товар")

	require.NoError(t, err)
	assert.Contains(t, out, "Vector index not built")
	assert.Contains(t, out, "Поступление товара")
	assert.Contains(t, out, "chapter 2")
}

func TestSearchCmd_KeywordAfterBuild(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)
	_, err := svc.index.Rebuild(context.Background())
	require.NoError(t, err)

	out, err := execute(t, "search", "--type", "keyword", "-n", "5", "принтер")

	require.NoError(t, err)
	assert.NotContains(t, out, "Vector index not built")
	assert.Contains(t, out, "Results (keyword):")
	assert.Contains(t, out, "Настройка принтера")
	assert.Contains(t, out, "(1.000)")
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "ничего")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_InvalidType(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "--type", "fuzzy", "x")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)

	out, err := execute(t, "search", "--json", "склад")
	require.NoError(t, err)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Fallback)
	assert.Equal(t, "склад", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].ChapterID)
}

func TestSearchCmd_NoService(t *testing.T) {
	resetCLIState()
	defer resetCLIState()

	_, err := execute(t, "search", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}
