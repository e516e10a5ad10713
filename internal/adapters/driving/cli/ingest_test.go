package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
)

func TestIngestMaterialsCmd(t *testing.T) {
	rt := setupRuntime(t)
	rt.ingestor.stats = &driving.IngestStats{Files: 3, Chunks: 12, Skipped: 1}

	out, err := execute(t, "ingest", "materials", "--dir", "./course", "--ext", "PDF, .md")
	require.NoError(t, err)

	assert.False(t, rt.withForum)
	assert.Equal(t, "./course", rt.ingestor.dir)
	assert.Equal(t, []string{"pdf", "md"}, rt.ingestor.exts)
	assert.Contains(t, out, "Ingested 12 chunks from 3 files (1 skipped, 0 failed)")
}

func TestIngestMaterialsCmd_DefaultExtensions(t *testing.T) {
	rt := setupRuntime(t)

	_, err := execute(t, "ingest", "materials", "--dir", "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf", "md", "txt"}, rt.ingestor.exts)
}

func TestIngestMaterialsCmd_RequiresDir(t *testing.T) {
	setupRuntime(t)

	_, err := execute(t, "ingest", "materials")
	assert.ErrorContains(t, err, "dir")
}

func TestIngestHistoryCmd(t *testing.T) {
	rt := setupRuntime(t)
	rt.ingestor.stats = &driving.IngestStats{Files: 40, Chunks: 25, Skipped: 15}

	out, err := execute(t, "ingest", "history")
	require.NoError(t, err)

	assert.True(t, rt.withForum)
	assert.Equal(t, 1, rt.ingestor.history)
	assert.Contains(t, out, "Ingested 25 chunks from 40 posts (15 skipped, 0 failed)")
}

func TestIngestHistoryCmd_Error(t *testing.T) {
	rt := setupRuntime(t)
	rt.ingestor.err = errors.New("embedding down")

	_, err := execute(t, "ingest", "history")
	assert.ErrorContains(t, err, "embedding down")
}
