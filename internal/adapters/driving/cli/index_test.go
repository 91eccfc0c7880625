package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/hashvocab"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

func TestIndexBuild(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)

	out, err := execute(t, "index", "build")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedded 3 of 3 chapters (0 errors)")
	assert.True(t, svc.vectors.Ready())
}

func TestIndexStats_NotBuilt(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "index", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:     not built")
	assert.Contains(t, out, "Embeddings: 0")
}

func TestIndexStats_JSONAfterBuild(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)
	_, err := svc.index.Rebuild(context.Background())
	require.NoError(t, err)

	out, err := execute(t, "index", "stats", "--json")
	require.NoError(t, err)

	var stats domain.VectorStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.True(t, stats.IsInitialized)
	assert.Equal(t, 3, stats.TotalEmbeddings)
	assert.Equal(t, hashvocab.ModelName, stats.Model.Name)
}

func TestIndexVector(t *testing.T) {
	svc := setupTestServices(t)
	svc.seed(t)
	_, err := svc.index.Rebuild(context.Background())
	require.NoError(t, err)

	out, err := execute(t, "index", "vector", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "Настройка принтера")
	assert.Contains(t, out, "Dimension: 128")
	assert.Contains(t, out, "...]")
}

func TestIndexVector_NotReady(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index", "vector", "1")

	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestIndexVocab(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "index", "vocab", "терминал", "ТСД", "склад")

	require.NoError(t, err)
	assert.Contains(t, out, "Added 2 new terms")
}

func TestFormatVectorHead(t *testing.T) {
	assert.Equal(t, "[0.100 -0.250]", formatVectorHead([]float32{0.1, -0.25}, 8))
	assert.Equal(t, "[1.000 ...]", formatVectorHead([]float32{1, 2, 3}, 1))
	assert.Equal(t, "[]", formatVectorHead(nil, 4))
}
