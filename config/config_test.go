package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "GEMINI_API_KEY", "PINECONE_API_KEY", "PINECONE_INDEX_NAME",
		"VECTOR_STORE", "TOP_K", "CHUNK_SIZE", "CHUNK_OVERLAP", "UPSERT_CONCURRENCY",
		"MAX_BODY_BYTES", "RETRY_ATTEMPTS", "STRICT_CONFIG", "WATCH_PDF", "PDF_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, VectorStorePinecone, cfg.VectorStore)
	assert.Equal(t, "./dsa.pdf", cfg.PDFPath)
	assert.Equal(t, 6, cfg.TopK)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.UpsertConcurrency)
	assert.Equal(t, int64(5<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 1, cfg.RetryAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"4000\"\ntop_k: 3\nvector_store: memory\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, VectorStoreMemory, cfg.VectorStore)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOP_K", "six")

	_, err := Load()
	assert.ErrorContains(t, err, "TOP_K")
}

func TestValidateWarnsOnMissingKeys(t *testing.T) {
	cfg := Default()

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"GEMINI_API_KEY is not set",
		"PINECONE_API_KEY is not set",
		"PINECONE_INDEX_NAME is not set",
	}, warnings)
}

func TestValidateStrictFailsClosed(t *testing.T) {
	cfg := Default()
	cfg.StrictConfig = true
	cfg.GeminiAPIKey = "key"

	_, err := cfg.Validate()
	assert.ErrorContains(t, err, "PINECONE_API_KEY")
}

func TestValidateMemoryStoreNeedsNoPinecone(t *testing.T) {
	cfg := Default()
	cfg.StrictConfig = true
	cfg.GeminiAPIKey = "key"
	cfg.VectorStore = VectorStoreMemory

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidateChunking(t *testing.T) {
	cfg := Default()
	cfg.ChunkOverlap = cfg.ChunkSize

	_, err := cfg.Validate()
	assert.ErrorContains(t, err, "CHUNK_OVERLAP")

	cfg = Default()
	cfg.VectorStore = "redis"
	_, err = cfg.Validate()
	assert.ErrorContains(t, err, "unknown VECTOR_STORE")
}
